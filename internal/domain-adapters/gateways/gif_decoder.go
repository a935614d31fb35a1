package gateways

import (
	"image/gif"
	"io"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// GIFDecoder decodes the first frame of a GIF, sized by the frame rectangle
type GIFDecoder struct{}

// NewGIFDecoder creates a new GIF decoder
func NewGIFDecoder() *GIFDecoder {
	return &GIFDecoder{}
}

// Format returns FormatGIF
func (d *GIFDecoder) Format() entities.ImageFormat {
	return entities.FormatGIF
}

// Decode reads the first frame of a GIF stream
func (d *GIFDecoder) Decode(r io.Reader) (*entities.ImageData, error) {
	img, err := gif.Decode(r)
	if err != nil {
		return nil, entities.NewConversionError(entities.FailureDecoding, "decode gif", err)
	}
	return toImageData(img), nil
}
