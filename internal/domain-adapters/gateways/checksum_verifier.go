package gateways

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// checksumVerifier implements SHA256SUMS handling using pure Go
type checksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumVerifier() *checksumVerifier {
	return &checksumVerifier{}
}

// VerifyChecksum verifies a file's SHA256 checksum
func (v *checksumVerifier) VerifyChecksum(_ context.Context, filePath, expectedSum string) error {
	actualSum, err := v.CalculateChecksum(filePath)
	if err != nil {
		return err
	}

	if !strings.EqualFold(actualSum, expectedSum) {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", filepath.Base(filePath), expectedSum, actualSum)
	}

	return nil
}

// CalculateChecksum calculates the SHA256 checksum of a file
func (v *checksumVerifier) CalculateChecksum(filePath string) (string, error) {
	//nolint:gosec // G304: File path is user-provided for checksum calculation
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteChecksumFile writes "<hex>  <path>" lines for files (relative to baseDir),
// sorted by path, in the format sha256sum understands
func (v *checksumVerifier) WriteChecksumFile(ctx context.Context, baseDir string, files []string, outPath string) error {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	var b strings.Builder
	for _, name := range sorted {
		if err := ctx.Err(); err != nil {
			return err
		}
		sum, err := v.CalculateChecksum(filepath.Join(baseDir, filepath.FromSlash(name)))
		if err != nil {
			return fmt.Errorf("failed to checksum %s: %w", name, err)
		}
		fmt.Fprintf(&b, "%s  %s\n", sum, filepath.ToSlash(name))
	}

	if err := os.WriteFile(outPath, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write checksum file: %w", err)
	}
	return nil
}

// VerifyChecksumFile checks every entry of a SHA256SUMS file against the
// files below baseDir
func (v *checksumVerifier) VerifyChecksumFile(ctx context.Context, baseDir, sumsPath string) error {
	entries, err := readChecksumFile(sumsPath)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("checksum file %s has no entries", sumsPath)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := v.VerifyChecksum(ctx, filepath.Join(baseDir, filepath.FromSlash(e.name)), e.sum); err != nil {
			return err
		}
	}
	return nil
}

type checksumEntry struct {
	sum  string
	name string
}

func readChecksumFile(path string) ([]checksumEntry, error) {
	//nolint:gosec // G304: checksum file path is provided by the release pipeline
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checksum file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	var entries []checksumEntry
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		sum, name, ok := strings.Cut(text, " ")
		name = strings.TrimPrefix(strings.TrimLeft(name, " "), "*")
		if !ok || name == "" || len(sum) != sha256.Size*2 {
			return nil, fmt.Errorf("malformed checksum line %d in %s", line, path)
		}
		if filepath.IsAbs(name) || strings.HasPrefix(filepath.Clean(filepath.FromSlash(name)), "..") {
			return nil, fmt.Errorf("checksum line %d names a path outside the release: %s", line, name)
		}
		entries = append(entries, checksumEntry{sum: sum, name: name})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checksum file: %w", err)
	}
	return entries, nil
}
