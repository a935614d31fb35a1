// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"
	"io"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// ImageDecoder decodes one container format into RGBA pixels
type ImageDecoder interface {
	// Format returns the container format handled by the decoder
	Format() entities.ImageFormat

	// Decode reads a whole image from r
	Decode(r io.Reader) (*entities.ImageData, error)
}

// Resampler scales pixel data to a new size
type Resampler interface {
	Resample(ctx context.Context, src *entities.ImageData, size entities.OutputSize) (*entities.ImageData, error)
}

// ImageEncoder writes pixel data in the output container format
type ImageEncoder interface {
	Encode(w io.Writer, img *entities.ImageData) error
}
