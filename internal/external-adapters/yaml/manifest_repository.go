package yaml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
)

// ManifestRepository implements repositories.ManifestRepository using YAML files
type ManifestRepository struct {
	manifestsDir string
	parser       *ManifestParser
	logger       interfaces.Logger
}

// NewManifestRepository creates a new YAML-based manifest repository
func NewManifestRepository(manifestsDir string, logger interfaces.Logger) *ManifestRepository {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ManifestRepository{
		manifestsDir: manifestsDir,
		parser:       NewManifestParser(),
		logger:       logger,
	}
}

// GetManifest retrieves a release manifest by artifact name
func (r *ManifestRepository) GetManifest(_ context.Context, name string) (*entities.ReleaseManifest, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid manifest name: %q", name)
	}

	filePath := filepath.Join(r.manifestsDir, name+".yml")

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("manifest not found: %s", name)
	}

	manifest, err := r.parser.ParseFile(filePath)
	if err != nil {
		return nil, err
	}
	if manifest.Name != name {
		return nil, fmt.Errorf("manifest %s declares name %q", filePath, manifest.Name)
	}
	return manifest, nil
}

// ListManifests returns all available release manifests
func (r *ManifestRepository) ListManifests(_ context.Context) ([]*entities.ReleaseManifest, error) {
	entries, err := os.ReadDir(r.manifestsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifests directory: %w", err)
	}

	manifests := make([]*entities.ReleaseManifest, 0)
	for _, entry := range entries {
		// Skip non-YAML files
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}

		filePath := filepath.Join(r.manifestsDir, entry.Name())
		def, err := r.parser.ParseFile(filePath)
		if err != nil {
			// Log warning but continue processing other files
			r.logger.Warn("skipping manifest", interfaces.F("file", entry.Name()), interfaces.F("error", err))
			continue
		}

		manifests = append(manifests, def)
	}

	return manifests, nil
}
