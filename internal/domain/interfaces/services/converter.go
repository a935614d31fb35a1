// Package services defines interfaces for domain service contracts.
package services

import (
	"context"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// Converter defines the image operations exposed to the plugin protocol and the CLI
type Converter interface {
	// DetectFormat returns the format of the image at path, or FormatUnknown
	DetectFormat(path string) entities.ImageFormat

	// ToResizedPNG converts src into a PNG at dst sized by cmd
	ToResizedPNG(ctx context.Context, src, dst string, cmd entities.SizeCommand) error
}
