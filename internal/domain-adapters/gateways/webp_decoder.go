package gateways

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"golang.org/x/image/webp"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// WEBPDecoder decodes lossy and lossless WebP images
type WEBPDecoder struct{}

// NewWEBPDecoder creates a new WebP decoder
func NewWEBPDecoder() *WEBPDecoder {
	return &WEBPDecoder{}
}

// Format returns FormatWEBP
func (d *WEBPDecoder) Format() entities.ImageFormat {
	return entities.FormatWEBP
}

// Decode reads a WebP stream. Streams without the RIFF/WEBP signature are
// Unsupported; signed streams that fail to parse are decoding failures.
func (d *WEBPDecoder) Decode(r io.Reader) (*entities.ImageData, error) {
	const op = "decode webp"

	br := bufio.NewReader(r)
	header, err := br.Peek(12)
	if err != nil || !isWEBPHeader(header) {
		return nil, entities.NewConversionError(entities.FailureUnsupported, op,
			fmt.Errorf("missing RIFF/WEBP signature"))
	}

	img, err := webp.Decode(br)
	if err != nil {
		return nil, entities.NewConversionError(entities.FailureDecoding, op, err)
	}
	return toImageData(img), nil
}

func isWEBPHeader(header []byte) bool {
	return len(header) >= 12 &&
		bytes.Equal(header[0:4], []byte("RIFF")) &&
		bytes.Equal(header[8:12], []byte("WEBP"))
}
