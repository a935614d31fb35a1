package entities

import (
	"path/filepath"
	"sort"
)

// Release file names written next to the staged directory. Checksum
// entries are relative to the output directory.
const (
	ChecksumFileName  = "SHA256SUMS"
	SignatureFileName = "SHA256SUMS.asc"
)

// ReleaseManifest describes how one plugin artifact is compiled and staged
type ReleaseManifest struct {
	Name        string // artifact directory name, e.g. "saori-resized-png-mini"
	Description string
	Binary      string // file name of the compiled module
	Package     string // Go package to compile
	Target      BuildTarget
	Build       BuildSettings
	Files       []string // extra files copied next to the binary
	Archive     string   // "", "zip" or "tar.gz"
	Signing     SigningConfig
}

// BuildTarget is the platform the module is compiled for
type BuildTarget struct {
	OS   string
	Arch string
	CGO  bool
	CC   string
}

// Platform returns "<os>-<arch>"
func (t BuildTarget) Platform() string {
	return t.OS + "-" + t.Arch
}

// BuildSettings configures the compiler invocation
type BuildSettings struct {
	Mode           string // go build -buildmode
	LDFlags        string
	Tags           []string
	Trimpath       bool
	TimeoutMinutes int
}

// SigningConfig configures the detached signature over the checksum file
type SigningConfig struct {
	KeyFile       string
	PassphraseEnv string
}

// Enabled reports whether a signing key is configured
func (s SigningConfig) Enabled() bool {
	return s.KeyFile != ""
}

// StagedFiles returns the file names a staged directory must contain, sorted
func (m *ReleaseManifest) StagedFiles() []string {
	names := []string{m.Binary}
	for _, f := range m.Files {
		names = append(names, filepath.Base(f))
	}
	sort.Strings(names)
	return names
}
