// Package config loads projectdesk settings from ~/.projectdesk/config.yml
// and .env files. Environment variables and flags are layered on top by the
// command via Set.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// EnvHome overrides the config directory.
	EnvHome = "PROJECTDESK_HOME"
	// EnvPrefix prefixes every environment override (PROJECTDESK_API_URL...).
	EnvPrefix = "PROJECTDESK"

	DefaultAPIURL     = "http://localhost:8000/api"
	DefaultPerPage    = 10
	DefaultTimeout    = 30 * time.Second
	DefaultGeocodeURL = "https://api.opencagedata.com/geocode/v1/json"
	DefaultTileURL    = "https://tile.openstreetmap.org"
	DefaultMapZoom    = 13
)

// Keys lists every setting name, in the order they are documented.
var Keys = []string{
	"api_url", "per_page", "request_timeout",
	"geocode_url", "geocode_key", "tile_url", "map_zoom",
	"log_level", "log_format", "log_file",
}

// Config models config.yml.
type Config struct {
	APIURL         string        `yaml:"api_url"`
	PerPage        int           `yaml:"per_page"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	GeocodeURL     string        `yaml:"geocode_url"`
	GeocodeKey     string        `yaml:"geocode_key"`
	TileURL        string        `yaml:"tile_url"`
	MapZoom        int           `yaml:"map_zoom"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
	LogFile        string        `yaml:"log_file"`

	// Dir is the directory the config was loaded from; not read from YAML.
	Dir string `yaml:"-"`
}

// Default returns the built-in settings rooted at dir.
func Default(dir string) *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		PerPage:        DefaultPerPage,
		RequestTimeout: DefaultTimeout,
		GeocodeURL:     DefaultGeocodeURL,
		TileURL:        DefaultTileURL,
		MapZoom:        DefaultMapZoom,
		LogLevel:       "info",
		LogFormat:      "text",
		Dir:            dir,
	}
}

// Dir returns the config directory: $PROJECTDESK_HOME or ~/.projectdesk.
func Dir() (string, error) {
	if d := os.Getenv(EnvHome); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".projectdesk"), nil
}

// Path returns the config file path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, "config.yml")
}

// TokenPath returns the session token path inside the config dir.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, "token")
}

// LogPath returns the log file path, defaulting to projectdesk.log in the
// config dir.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.Dir, "projectdesk.log")
}

// Load builds the config for dir: defaults, then config.yml if present.
// It also loads dir/.env and ./.env into the process environment without
// overriding variables that are already set.
func Load(dir string) (*Config, error) {
	loadDotEnv(filepath.Join(dir, ".env"), ".env")

	cfg := Default(dir)
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := cfg.merge(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromYAML parses and validates config from raw YAML bytes on top of the
// defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default("")
	if err := cfg.merge(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("invalid config yaml: %w", err)
	}
	return c.Validate()
}

func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// Validate ensures the settings are usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config.api_url must be an absolute URL, got %q", c.APIURL)
	}
	if c.PerPage < 1 {
		return fmt.Errorf("config.per_page must be at least 1")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config.request_timeout must be positive")
	}
	if c.MapZoom < 0 || c.MapZoom > 19 {
		return fmt.Errorf("config.map_zoom must be between 0 and 19")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config.log_level must be one of debug, info, warn, error")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config.log_format must be text or json")
	}
	return nil
}

// Set applies a string value to the named key. It is how environment
// variables and flags override the file.
func (c *Config) Set(key, value string) error {
	switch key {
	case "api_url":
		c.APIURL = strings.TrimRight(value, "/")
	case "per_page":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("per_page: %w", err)
		}
		c.PerPage = n
	case "request_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("request_timeout: %w", err)
		}
		c.RequestTimeout = d
	case "geocode_url":
		c.GeocodeURL = value
	case "geocode_key":
		c.GeocodeKey = value
	case "tile_url":
		c.TileURL = strings.TrimRight(value, "/")
	case "map_zoom":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("map_zoom: %w", err)
		}
		c.MapZoom = n
	case "log_level":
		c.LogLevel = strings.ToLower(value)
	case "log_format":
		c.LogFormat = strings.ToLower(value)
	case "log_file":
		c.LogFile = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// Get returns the named key as a string, for display.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "per_page":
		return strconv.Itoa(c.PerPage), nil
	case "request_timeout":
		return c.RequestTimeout.String(), nil
	case "geocode_url":
		return c.GeocodeURL, nil
	case "geocode_key":
		return c.GeocodeKey, nil
	case "tile_url":
		return c.TileURL, nil
	case "map_zoom":
		return strconv.Itoa(c.MapZoom), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "log_file":
		return c.LogPath(), nil
	}
	return "", fmt.Errorf("unknown config key %q", key)
}
