package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "São Paulo, São Paulo, 01310100" {
			t.Errorf("q = %q", got)
		}
		if r.URL.Query().Get("key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"status": map[string]any{"code": 401, "message": "invalid API key"}}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"results": []any{map[string]any{"geometry": map[string]float64{"lat": -23.56, "lng": -46.65}}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second)
	p, err := c.Lookup(context.Background(), "São Paulo, São Paulo, 01310100")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if p.Lat != -23.56 || p.Lng != -46.65 {
		t.Errorf("point = %+v", p)
	}

	bad := New(srv.URL, "wrong", time.Second)
	_, err = bad.Lookup(context.Background(), "São Paulo, São Paulo, 01310100")
	if err == nil || !strings.Contains(err.Error(), "invalid API key") {
		t.Errorf("err = %v, want invalid API key", err)
	}
}

func TestLookup_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}}) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := New(srv.URL, "k", time.Second).Lookup(context.Background(), "nowhere")
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("err = %v, want ErrNoResults", err)
	}
}

func TestLookup_NoKey(t *testing.T) {
	_, err := New("http://unused.invalid", "", 0).Lookup(context.Background(), "x")
	if !errors.Is(err, ErrNoKey) {
		t.Errorf("err = %v, want ErrNoKey", err)
	}
}

func TestTile(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		z    int
		x, y int
	}{
		{"origin at zoom 0", Point{0, 0}, 0, 0, 0},
		{"origin at zoom 1", Point{0, 0}, 1, 1, 1},
		{"sao paulo at 13", DefaultCenter, 13, 3034, 4647},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := Tile(tt.p, tt.z)
			if x != tt.x || y != tt.y {
				t.Errorf("Tile(%v, %d) = %d,%d want %d,%d", tt.p, tt.z, x, y, tt.x, tt.y)
			}
		})
	}
}

func TestTileURL(t *testing.T) {
	got := TileURL("https://tile.openstreetmap.org/", Point{0, 0}, 1)
	if got != "https://tile.openstreetmap.org/1/1/1.png" {
		t.Errorf("TileURL = %q", got)
	}
}

func TestMapURL(t *testing.T) {
	got := MapURL(DefaultCenter, 13)
	want := "https://www.openstreetmap.org/?mlat=-23.550520&mlon=-46.633308#map=13/-23.550520/-46.633308"
	if got != want {
		t.Errorf("MapURL = %q, want %q", got, want)
	}
}
