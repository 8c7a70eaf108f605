package tui

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// releasesURL is the latest-release endpoint checked at startup.
const releasesURL = "https://api.github.com/repos/naveenspark/projectdesk/releases/latest"

// releaseMsg names a published release newer than the running build, or is
// empty when there is none (or the check failed).
type releaseMsg struct {
	tag string
}

// checkVersion looks for a newer release in the background. Development
// builds skip the check.
func checkVersion(current string) tea.Cmd {
	if current == "" || current == "dev" {
		return nil
	}
	return checkVersionAt(releasesURL, current)
}

func checkVersionAt(url, current string) tea.Cmd {
	return func() tea.Msg {
		tag, err := latestRelease(url)
		if err != nil || !isNewerVersion(tag, current) {
			return releaseMsg{}
		}
		return releaseMsg{tag: "v" + strings.TrimPrefix(tag, "v")}
	}
}

// latestRelease reads a GitHub release document. Drafts and prereleases
// are reported as no release.
func latestRelease(url string) (string, error) {
	hc := &http.Client{Timeout: 5 * time.Second}
	resp, err := hc.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return "", nil
	}
	var rel struct {
		TagName    string `json:"tag_name"`
		Draft      bool   `json:"draft"`
		Prerelease bool   `json:"prerelease"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return "", err
	}
	if rel.Draft || rel.Prerelease {
		return "", nil
	}
	return rel.TagName, nil
}

// isNewerVersion compares major.minor.patch; anything after a '-' or '+'
// is ignored.
func isNewerVersion(latest, current string) bool {
	l, c := parseVersion(latest), parseVersion(current)
	for i := range l {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

func parseVersion(v string) [3]int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	var out [3]int
	for i, part := range strings.SplitN(v, ".", 3) {
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		out[i] = n
	}
	return out
}
