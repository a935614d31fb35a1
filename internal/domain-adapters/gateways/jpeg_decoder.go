package gateways

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// JPEGDecoder decodes baseline and progressive JPEGs. Gray and YCbCr
// images expand to opaque RGB; CMYK images are rejected.
type JPEGDecoder struct{}

// NewJPEGDecoder creates a new JPEG decoder
func NewJPEGDecoder() *JPEGDecoder {
	return &JPEGDecoder{}
}

// Format returns FormatJPEG
func (d *JPEGDecoder) Format() entities.ImageFormat {
	return entities.FormatJPEG
}

// Decode reads a JPEG stream
func (d *JPEGDecoder) Decode(r io.Reader) (*entities.ImageData, error) {
	const op = "decode jpeg"

	img, err := jpeg.Decode(r)
	if err != nil {
		var unsupported jpeg.UnsupportedError
		if errors.As(err, &unsupported) {
			return nil, entities.NewConversionError(entities.FailureUnsupported, op, err)
		}
		return nil, entities.NewConversionError(entities.FailureDecoding, op, err)
	}

	if _, ok := img.(*image.CMYK); ok {
		return nil, entities.NewConversionError(entities.FailureUnsupported, op,
			fmt.Errorf("CMYK colour space"))
	}

	return toImageData(img), nil
}
