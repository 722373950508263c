// Package update tells the user when a newer tickd release exists. The
// check is best-effort and rate limited: network problems stay silent and
// the GitHub API is asked at most once per day.
package update

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tickd-dev/tickd/internal/cli/userconfig"
)

const (
	releasesAPIURL = "https://api.github.com/repos/tickd-dev/tickd/releases/latest"
	releasesURL    = "https://github.com/tickd-dev/tickd/releases"
	userAgent      = "tickd-cli"

	checkInterval = 24 * time.Hour
)

type release struct {
	TagName string `json:"tag_name"`
}

// latestVersion asks the GitHub API for the newest release tag.
func latestVersion() (string, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	req, err := http.NewRequest(http.MethodGet, releasesAPIURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return "", fmt.Errorf("failed to parse release: %w", err)
	}
	return rel.TagName, nil
}

// newer reports whether latest differs from current. Development builds
// always count as outdated so contributors see the released version.
func newer(current, latest string) bool {
	current = strings.TrimPrefix(current, "v")
	latest = strings.TrimPrefix(latest, "v")
	if current == "dev" {
		return true
	}
	return latest != "" && current != latest
}

// PrintUpdateNotification prints a hint on stderr when a newer release is
// available. At most one network check per day; failures are silent.
func PrintUpdateNotification(currentVersion string) {
	if !userconfig.UpdateCheckDue(checkInterval) {
		return
	}

	latest, err := latestVersion()
	if err != nil {
		return
	}
	_ = userconfig.TouchUpdateCheck()

	if newer(currentVersion, latest) {
		fmt.Fprintf(os.Stderr, "New version available: %s -> %s. See %s\n\n", currentVersion, latest, releasesURL)
	}
}
