package services

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// ReleaseStatus represents the state of a staged release directory
type ReleaseStatus string

// Release validation statuses
const (
	StatusReady           ReleaseStatus = "ready"
	StatusNoArtifacts     ReleaseStatus = "no_artifacts"
	StatusMissingFiles    ReleaseStatus = "missing_files"
	StatusUnexpectedFiles ReleaseStatus = "unexpected_files"
)

// Build modes and archive formats accepted in manifests
var (
	validBuildModes = map[string]bool{"": true, "c-shared": true, "exe": true, "default": true}
	validArchives   = map[string]bool{"": true, "zip": true, "tar.gz": true}

	sharedLibraryExt = map[string]string{
		"windows": ".dll",
		"linux":   ".so",
		"darwin":  ".dylib",
	}
)

// ReleaseValidation contains the comparison of a staged directory with the
// files its manifest names
type ReleaseValidation struct {
	Status          ReleaseStatus
	ExpectedFiles   []string
	PresentFiles    []string
	MissingFiles    []string
	UnexpectedFiles []string
}

// IsReady returns true if the directory holds exactly the expected files
func (rv *ReleaseValidation) IsReady() bool {
	return rv.Status == StatusReady
}

// ErrorMessage returns a human-readable error message if not ready
func (rv *ReleaseValidation) ErrorMessage() string {
	switch rv.Status {
	case StatusReady:
		return ""
	case StatusNoArtifacts:
		return fmt.Sprintf("No files staged (expected: %s)", strings.Join(rv.ExpectedFiles, ", "))
	case StatusMissingFiles:
		msg := fmt.Sprintf("Missing: %s", strings.Join(rv.MissingFiles, ", "))
		if len(rv.UnexpectedFiles) > 0 {
			msg += fmt.Sprintf("\n   Unexpected: %s", strings.Join(rv.UnexpectedFiles, ", "))
		}
		return msg
	case StatusUnexpectedFiles:
		return fmt.Sprintf("Unexpected files found: %s", strings.Join(rv.UnexpectedFiles, ", "))
	default:
		return "Unknown status"
	}
}

// ReleaseService handles release validation logic
type ReleaseService struct{}

// NewReleaseService creates a new release service
func NewReleaseService() *ReleaseService {
	return &ReleaseService{}
}

// ValidateManifest checks that a manifest describes a stageable artifact
func (s *ReleaseService) ValidateManifest(m *entities.ReleaseManifest) error {
	if m == nil {
		return fmt.Errorf("manifest cannot be nil")
	}
	if err := s.validateName("name", m.Name); err != nil {
		return err
	}
	if err := s.validateName("binary", m.Binary); err != nil {
		return err
	}
	if m.Package == "" {
		return fmt.Errorf("package is required")
	}
	if m.Target.OS == "" || m.Target.Arch == "" {
		return fmt.Errorf("target os and arch are required")
	}
	if !validBuildModes[m.Build.Mode] {
		return fmt.Errorf("unsupported build mode: %s", m.Build.Mode)
	}
	if m.Build.Mode == "c-shared" {
		if !m.Target.CGO {
			return fmt.Errorf("build mode c-shared requires cgo")
		}
		if ext, ok := sharedLibraryExt[m.Target.OS]; ok && !strings.EqualFold(filepath.Ext(m.Binary), ext) {
			return fmt.Errorf("binary %s should end in %s for %s", m.Binary, ext, m.Target.OS)
		}
	}
	if !validArchives[m.Archive] {
		return fmt.Errorf("unsupported archive format: %s", m.Archive)
	}
	if m.Build.TimeoutMinutes < 0 {
		return fmt.Errorf("timeout_minutes cannot be negative")
	}

	seen := map[string]bool{m.Binary: true}
	for _, f := range m.Files {
		if f == "" || path.IsAbs(filepath.ToSlash(f)) || strings.Contains(filepath.ToSlash(f), "..") {
			return fmt.Errorf("invalid release file: %q", f)
		}
		base := filepath.Base(f)
		if seen[base] {
			return fmt.Errorf("duplicate release file: %s", base)
		}
		seen[base] = true
	}

	return nil
}

// validateName rejects empty names and names carrying a directory
func (s *ReleaseService) validateName(field, name string) error {
	if name == "" {
		return fmt.Errorf("%s is required", field)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%s must be a plain file name: %s", field, name)
	}
	return nil
}

// ValidateStage compares the entries of a staged directory with the files
// the manifest requires
func (s *ReleaseService) ValidateStage(expected, present []string) *ReleaseValidation {
	validation := &ReleaseValidation{
		ExpectedFiles: sortedCopy(expected),
		PresentFiles:  sortedCopy(present),
	}

	validation.MissingFiles = difference(validation.ExpectedFiles, validation.PresentFiles)
	validation.UnexpectedFiles = difference(validation.PresentFiles, validation.ExpectedFiles)

	switch {
	case len(validation.PresentFiles) == 0:
		validation.Status = StatusNoArtifacts
	case len(validation.MissingFiles) > 0:
		validation.Status = StatusMissingFiles
	case len(validation.UnexpectedFiles) > 0:
		validation.Status = StatusUnexpectedFiles
	default:
		validation.Status = StatusReady
	}

	return validation
}

// difference returns the names in a that are not in b
func difference(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, name := range b {
		set[name] = true
	}

	var out []string
	for _, name := range a {
		if !set[name] {
			out = append(out, name)
		}
	}
	return out
}

func sortedCopy(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
