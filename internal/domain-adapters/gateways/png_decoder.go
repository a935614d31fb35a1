package gateways

import (
	"errors"
	"image/png"
	"io"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// PNGDecoder decodes PNG images of every colour type and bit depth.
// 16-bit samples keep their high byte; palette transparency becomes alpha.
type PNGDecoder struct{}

// NewPNGDecoder creates a new PNG decoder
func NewPNGDecoder() *PNGDecoder {
	return &PNGDecoder{}
}

// Format returns FormatPNG
func (d *PNGDecoder) Format() entities.ImageFormat {
	return entities.FormatPNG
}

// Decode reads a PNG stream
func (d *PNGDecoder) Decode(r io.Reader) (*entities.ImageData, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, classifyPNGError(err)
	}
	return toImageData(img), nil
}

func classifyPNGError(err error) error {
	const op = "decode png"

	var unsupported png.UnsupportedError
	if errors.As(err, &unsupported) {
		return entities.NewConversionError(entities.FailureUnsupported, op, err)
	}
	return entities.NewConversionError(entities.FailureDecoding, op, err)
}
