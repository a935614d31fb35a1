package gateways

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// releaseTagPattern matches release tags like "v1.2.3" or "1.2"
const releaseTagPattern = `^v?([0-9]+(\.[0-9]+)*)$`

// VersionFetcher resolves the release version from the repository's git tags
type VersionFetcher struct {
	execute func(ctx context.Context, config ExecuteConfig) *ExecuteResult
}

// NewVersionFetcher creates a version fetcher that runs git through executor
func NewVersionFetcher(executor *GoCompiler) *VersionFetcher {
	return &VersionFetcher{execute: executor.Execute}
}

// FetchLatestVersion returns the highest release tag reachable from HEAD,
// without the "v" prefix
func (vf *VersionFetcher) FetchLatestVersion(ctx context.Context, sourceDir string) (string, error) {
	result := vf.execute(ctx, ExecuteConfig{
		Command:    "git",
		Args:       []string{"tag", "--list", "--merged", "HEAD"},
		WorkingDir: sourceDir,
		Timeout:    30 * time.Second,
	})
	if !result.Success {
		return "", fmt.Errorf("git tag failed (exit %d): %w", result.ExitCode, result.Error)
	}

	return vf.latestVersion(result.Stdout)
}

// latestVersion picks the highest release tag from newline separated tags
func (vf *VersionFetcher) latestVersion(tags string) (string, error) {
	var latest string
	for _, tag := range strings.Split(tags, "\n") {
		version, err := vf.extractVersion(strings.TrimSpace(tag), releaseTagPattern)
		if err != nil {
			continue
		}
		if latest == "" || vf.compareVersions(version, latest) > 0 {
			latest = version
		}
	}

	if latest == "" {
		return "", fmt.Errorf("no release tags found")
	}
	return latest, nil
}

// compareVersions compares two version strings semantically
// Returns: 1 if v1 > v2, -1 if v1 < v2, 0 if equal
func (vf *VersionFetcher) compareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	maxLen := len(parts1)
	if len(parts2) > maxLen {
		maxLen = len(parts2)
	}

	for i := 0; i < maxLen; i++ {
		num1 := versionPart(parts1, i)
		num2 := versionPart(parts2, i)

		if num1 > num2 {
			return 1
		} else if num1 < num2 {
			return -1
		}
	}

	return 0
}

// versionPart returns the leading number of parts[i] (0 when absent)
func versionPart(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	end := 0
	for end < len(parts[i]) && parts[i][end] >= '0' && parts[i][end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(parts[i][:end])
	if err != nil {
		return 0
	}
	return n
}

// extractVersion extracts version using regex
func (vf *VersionFetcher) extractVersion(input, pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid regex pattern: %w", err)
	}

	matches := re.FindStringSubmatch(input)
	if len(matches) == 0 {
		return "", fmt.Errorf("no match found for pattern: %s", pattern)
	}

	// Return the first capture group if it exists AND is not empty
	if len(matches) > 1 && matches[1] != "" {
		return matches[1], nil
	}

	return matches[0], nil
}
