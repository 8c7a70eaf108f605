package tui

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"0.2.1", "0.2.0", true},
		{"v0.3.0", "0.2.9", true},
		{"1.0.0", "0.9.12", true},
		{"0.2.0", "0.2.0", false},
		{"0.2.0", "v0.2.0", false},
		{"0.1.9", "0.2.0", false},
		{"0.3.0-rc1", "0.2.0", true},
		{"0.3.0-rc1", "0.3.0", false},
		{"", "0.1.0", false},
		{"garbage", "dev", false},
	}
	for _, tc := range tests {
		if got := isNewerVersion(tc.latest, tc.current); got != tc.want {
			t.Errorf("isNewerVersion(%q, %q) = %v, want %v", tc.latest, tc.current, got, tc.want)
		}
	}
}

func TestParseVersion(t *testing.T) {
	if got := parseVersion("v1.4"); got != [3]int{1, 4, 0} {
		t.Errorf("parseVersion(v1.4) = %v", got)
	}
	if got := parseVersion("2.0.1+build.7"); got != [3]int{2, 0, 1} {
		t.Errorf("parseVersion(2.0.1+build.7) = %v", got)
	}
}

func TestCheckVersionSkipsDevBuilds(t *testing.T) {
	for _, v := range []string{"", "dev"} {
		if checkVersion(v) != nil {
			t.Errorf("checkVersion(%q) should not schedule a request", v)
		}
	}
}

func TestCheckVersionAt(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want string
	}{
		{"newer", http.StatusOK, `{"tag_name":"v0.5.0"}`, "v0.5.0"},
		{"untagged prefix", http.StatusOK, `{"tag_name":"0.5.0"}`, "v0.5.0"},
		{"same", http.StatusOK, `{"tag_name":"v0.4.0"}`, ""},
		{"prerelease", http.StatusOK, `{"tag_name":"v0.9.0","prerelease":true}`, ""},
		{"draft", http.StatusOK, `{"tag_name":"v0.9.0","draft":true}`, ""},
		{"not found", http.StatusNotFound, `{"message":"Not Found"}`, ""},
		{"bad json", http.StatusOK, `{`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				w.Write([]byte(tc.body)) //nolint:errcheck
			}))
			defer srv.Close()

			msg := checkVersionAt(srv.URL, "0.4.0")().(releaseMsg)
			if msg.tag != tc.want {
				t.Errorf("tag = %q, want %q", msg.tag, tc.want)
			}
		})
	}
}
