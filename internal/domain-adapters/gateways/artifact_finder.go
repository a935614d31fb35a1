package gateways

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// ArtifactFinder locates the outputs of a release run
type ArtifactFinder struct{}

// NewArtifactFinder creates a new artifact finder
func NewArtifactFinder() *ArtifactFinder {
	return &ArtifactFinder{}
}

// ChecksumPath returns where the checksum file of a release lives. Entries
// are relative to outputDir.
func (f *ArtifactFinder) ChecksumPath(outputDir string) string {
	return filepath.Join(outputDir, entities.ChecksumFileName)
}

// SignaturePath returns where the checksum signature of a release lives
func (f *ArtifactFinder) SignaturePath(outputDir string) string {
	return filepath.Join(outputDir, entities.SignatureFileName)
}

// FindRelease returns the artifacts present in outputDir for name: the
// staged directory (required), checksums, signature and archives
func (f *ArtifactFinder) FindRelease(outputDir, name string) ([]*entities.Artifact, error) {
	stageDir := filepath.Join(outputDir, name)
	info, err := os.Stat(stageDir)
	if err != nil {
		return nil, fmt.Errorf("release directory not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("release path is not a directory: %s", stageDir)
	}

	artifacts := []*entities.Artifact{{Name: name, Path: stageDir, Type: entities.ArtifactDirectory}}

	candidates := []struct {
		path string
		kind string
	}{
		{f.ChecksumPath(outputDir), entities.ArtifactChecksums},
		{f.SignaturePath(outputDir), entities.ArtifactSignature},
		{filepath.Join(outputDir, name+".zip"), entities.ArtifactArchive},
		{filepath.Join(outputDir, name+".tar.gz"), entities.ArtifactArchive},
	}
	for _, c := range candidates {
		if info, err := os.Stat(c.path); err == nil && info.Mode().IsRegular() {
			artifacts = append(artifacts, &entities.Artifact{Name: name, Path: c.path, Type: c.kind})
		}
	}

	return artifacts, nil
}

// ListDir returns the entry names of a staged directory, sorted
func (f *ArtifactFinder) ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}
