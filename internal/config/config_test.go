package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, 10, cfg.PerPage)
	assert.Equal(t, 13, cfg.MapZoom)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, filepath.Join(dir, "token"), cfg.TokenPath())
	assert.Equal(t, filepath.Join(dir, "projectdesk.log"), cfg.LogPath())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yml := "api_url: https://pm.example.com/api\nper_page: 25\nrequest_timeout: 5s\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(Path(dir), []byte(yml), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://pm.example.com/api", cfg.APIURL)
	assert.Equal(t, 25, cfg.PerPage)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DefaultTileURL, cfg.TileURL, "unset keys keep defaults")
}

func TestFromYAMLValidation(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"relative api url", "api_url: /api\n"},
		{"zero per page", "per_page: 0\n"},
		{"bad log level", "log_level: loud\n"},
		{"bad log format", "log_format: xml\n"},
		{"zoom out of range", "map_zoom: 25\n"},
		{"not yaml", "api_url: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromYAML([]byte(tt.yml))
			assert.Error(t, err)
		})
	}
}

func TestDotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("PROJECTDESK_TEST_A=from-dotenv\nPROJECTDESK_TEST_B=from-dotenv\n"), 0600))
	t.Setenv("PROJECTDESK_TEST_A", "from-env")
	t.Cleanup(func() { os.Unsetenv("PROJECTDESK_TEST_B") }) //nolint:errcheck

	_, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", os.Getenv("PROJECTDESK_TEST_A"))
	assert.Equal(t, "from-dotenv", os.Getenv("PROJECTDESK_TEST_B"))
}

func TestSetAndGet(t *testing.T) {
	cfg := Default(t.TempDir())
	for _, key := range Keys {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}

	require.NoError(t, cfg.Set("api_url", "https://x.example.com/api/"))
	require.NoError(t, cfg.Set("per_page", "3"))
	require.NoError(t, cfg.Set("request_timeout", "2s"))
	assert.Equal(t, "https://x.example.com/api", cfg.APIURL)
	assert.Equal(t, 3, cfg.PerPage)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)

	assert.Error(t, cfg.Set("per_page", "many"))
	assert.Error(t, cfg.Set("nope", "x"))
	_, err := cfg.Get("nope")
	assert.Error(t, err)
}

func TestDirHonorsEnv(t *testing.T) {
	t.Setenv(EnvHome, "/tmp/pd-home")
	d, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pd-home", d)
}
