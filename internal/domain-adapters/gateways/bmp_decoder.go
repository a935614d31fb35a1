package gateways

import (
	"errors"
	"io"

	"golang.org/x/image/bmp"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// BMPDecoder decodes Windows bitmaps. Alpha is opaque unless the bitmap
// declares an alpha channel.
type BMPDecoder struct{}

// NewBMPDecoder creates a new BMP decoder
func NewBMPDecoder() *BMPDecoder {
	return &BMPDecoder{}
}

// Format returns FormatBMP
func (d *BMPDecoder) Format() entities.ImageFormat {
	return entities.FormatBMP
}

// Decode reads a BMP stream. Any parse failure is reported as Unsupported,
// truncated pixel data as a decoding failure.
func (d *BMPDecoder) Decode(r io.Reader) (*entities.ImageData, error) {
	img, err := bmp.Decode(r)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, entities.NewConversionError(entities.FailureDecoding, "decode bmp", err)
		}
		return nil, entities.NewConversionError(entities.FailureUnsupported, "decode bmp", err)
	}
	return toImageData(img), nil
}
