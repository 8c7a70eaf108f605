// Package browser hands map and help links to the desktop.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// launchers maps GOOS to the command that opens a URL.
var launchers = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

// Open opens an http(s) link in the user's default browser.
func Open(link string) error {
	name, args, err := command(runtime.GOOS, link)
	if err != nil {
		return err
	}
	return exec.Command(name, args...).Start()
}

// command returns the launcher invocation for link on goos.
func command(goos, link string) (string, []string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", nil, fmt.Errorf("browser: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", nil, fmt.Errorf("browser: refusing %q link", u.Scheme)
	}
	l, ok := launchers[goos]
	if !ok {
		return "", nil, fmt.Errorf("browser: unsupported OS %s", goos)
	}
	args := append(append([]string{}, l[1:]...), link)
	return l[0], args, nil
}
