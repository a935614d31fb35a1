// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// ManifestRepository defines the interface for accessing release manifests
type ManifestRepository interface {
	// GetManifest retrieves a release manifest by artifact name
	GetManifest(ctx context.Context, name string) (*entities.ReleaseManifest, error)

	// ListManifests returns all available release manifests
	ListManifests(ctx context.Context) ([]*entities.ReleaseManifest, error)
}
