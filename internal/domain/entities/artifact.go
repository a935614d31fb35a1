// Package entities defines core domain models and data structures.
package entities

// Artifact represents a file or directory produced by the release pipeline
type Artifact struct {
	Name     string
	Version  string
	Platform string
	Path     string
	Type     string // "binary", "directory", "archive", "checksums", "signature"
}

// Artifact types produced by the release pipeline
const (
	ArtifactBinary    = "binary"
	ArtifactDirectory = "directory"
	ArtifactArchive   = "archive"
	ArtifactChecksums = "checksums"
	ArtifactSignature = "signature"
)
