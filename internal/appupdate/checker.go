// Package appupdate compares the running cursorusage build with the latest
// GitHub release.
package appupdate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	binaryName       = "cursorusage"
	repoPath         = "janekbaraniewski/cursorusage"
	latestReleaseURL = "https://api.github.com/repos/" + repoPath + "/releases/latest"
	requestTimeout   = 1500 * time.Millisecond
	tokenEnv         = "CURSORUSAGE_GITHUB_TOKEN"
)

type InstallMethod string

const (
	InstallUnknown   InstallMethod = "unknown"
	InstallHomebrew  InstallMethod = "homebrew"
	InstallGoInstall InstallMethod = "go_install"
	InstallRelease   InstallMethod = "release_archive"
)

type Options struct {
	CurrentVersion string
	ExecutablePath string
	ReleaseURL     string
	Timeout        time.Duration
	HTTPClient     *http.Client
}

type Result struct {
	CurrentVersion  string        `json:"current_version"`
	LatestVersion   string        `json:"latest_version,omitempty"`
	UpdateAvailable bool          `json:"update_available"`
	InstallMethod   InstallMethod `json:"install_method"`
	UpgradeHint     string        `json:"upgrade_hint"`
}

// Check never reports an update for dev or prerelease builds.
func Check(ctx context.Context, opts Options) (Result, error) {
	current := canonicalVersion(opts.CurrentVersion)
	method := installMethodFor(executablePath(opts.ExecutablePath))
	res := Result{
		CurrentVersion: current,
		InstallMethod:  method,
		UpgradeHint:    method.hint(),
	}
	if current == "" {
		return res, nil
	}

	latest, err := latestRelease(ctx, opts, current)
	if err != nil {
		return res, err
	}
	res.LatestVersion = latest
	res.UpdateAvailable = semver.Compare(latest, current) > 0
	return res, nil
}

func latestRelease(ctx context.Context, opts Options, current string) (string, error) {
	target := strings.TrimSpace(opts.ReleaseURL)
	if target == "" {
		target = latestReleaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", binaryName+"/"+current)
	if token := strings.TrimSpace(os.Getenv(tokenEnv)); token != "" && isGitHubAPI(target) {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch latest release: HTTP %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("decode latest release: %w", err)
	}
	latest := canonicalVersion(release.TagName)
	if latest == "" {
		return "", fmt.Errorf("latest release tag %q is not a stable version", release.TagName)
	}
	return latest, nil
}

// canonicalVersion returns "" for anything that is not a stable semver tag.
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) || semver.Prerelease(v) != "" || semver.Build(v) != "" {
		return ""
	}
	return semver.Canonical(v)
}

func executablePath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return slashLower(p)
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil && resolved != "" {
		exe = resolved
	}
	return slashLower(exe)
}

func slashLower(p string) string {
	return strings.ToLower(filepath.ToSlash(filepath.Clean(p)))
}

func installMethodFor(path string) InstallMethod {
	if path == "" || path == "." {
		return InstallUnknown
	}
	base := strings.TrimSuffix(filepath.Base(path), ".exe")
	if base != binaryName {
		return InstallUnknown
	}
	dir := filepath.ToSlash(filepath.Dir(path))

	switch {
	case strings.Contains(path, "/cellar/"+binaryName+"/"), dir == "/opt/homebrew/bin":
		return InstallHomebrew
	case strings.HasSuffix(dir, "/go/bin"), dir == goBinDir():
		return InstallGoInstall
	case dir == "/usr/local/bin", strings.HasSuffix(dir, "/.local/bin"):
		return InstallRelease
	}
	return InstallUnknown
}

func goBinDir() string {
	if gobin := os.Getenv("GOBIN"); gobin != "" {
		return slashLower(gobin)
	}
	if gopath := filepath.SplitList(os.Getenv("GOPATH")); len(gopath) > 0 && gopath[0] != "" {
		return slashLower(filepath.Join(gopath[0], "bin"))
	}
	return "\x00"
}

func (m InstallMethod) hint() string {
	switch m {
	case InstallHomebrew:
		return "brew upgrade " + binaryName
	case InstallGoInstall:
		return "go install github.com/" + repoPath + "/cmd/" + binaryName + "@latest"
	}
	return "download the latest archive from https://github.com/" + repoPath + "/releases/latest"
}

func isGitHubAPI(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, "https") && strings.EqualFold(u.Hostname(), "api.github.com")
}
