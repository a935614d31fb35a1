package gateways

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// PNG compression levels
const (
	CompressionDefault = entities.CompressionDefault
	CompressionNone    = entities.CompressionNone
	CompressionSpeed   = entities.CompressionSpeed
	CompressionBest    = entities.CompressionBest
)

var compressionLevels = map[string]png.CompressionLevel{
	CompressionDefault: png.DefaultCompression,
	CompressionNone:    png.NoCompression,
	CompressionSpeed:   png.BestSpeed,
	CompressionBest:    png.BestCompression,
}

// encoderBuffers is shared by every PNGEncoder
var encoderBuffers = &bufferPool{}

type bufferPool struct {
	pool sync.Pool
}

func (p *bufferPool) Get() *png.EncoderBuffer {
	b, _ := p.pool.Get().(*png.EncoderBuffer)
	return b
}

func (p *bufferPool) Put(b *png.EncoderBuffer) {
	p.pool.Put(b)
}

// PNGEncoder writes 8-bit PNG images
type PNGEncoder struct {
	encoder png.Encoder
}

// NewPNGEncoder creates an encoder with the named compression level ("" = default)
func NewPNGEncoder(level string) (*PNGEncoder, error) {
	if level == "" {
		level = CompressionDefault
	}
	compression, ok := compressionLevels[level]
	if !ok {
		return nil, fmt.Errorf("unknown compression level %q", level)
	}
	return &PNGEncoder{
		encoder: png.Encoder{
			CompressionLevel: compression,
			BufferPool:       encoderBuffers,
		},
	}, nil
}

// Encode writes img to w. Write failures are I/O failures, everything else
// is an encoding failure.
func (e *PNGEncoder) Encode(w io.Writer, img *entities.ImageData) error {
	const op = "encode png"

	if uint64(len(img.Pix)) != img.PixelCount()*4 {
		return entities.NewConversionError(entities.FailureParameter, op,
			fmt.Errorf("pixel buffer holds %d bytes, want %d", len(img.Pix), img.PixelCount()*4))
	}

	ew := &errWriter{w: w}
	if err := e.encoder.Encode(ew, rgbaImage{toNRGBA(img)}); err != nil {
		if ew.err != nil {
			return entities.IOFailure(op, ew.err)
		}
		return entities.NewConversionError(entities.FailureEncoding, op, err)
	}
	return nil
}

// rgbaImage makes image/png write colour type 6 (RGBA, 8 bits) even when
// every pixel is opaque
type rgbaImage struct {
	*image.NRGBA
}

func (rgbaImage) Opaque() bool {
	return false
}

// errWriter remembers the first write error of the underlying writer
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	n, err := e.w.Write(p)
	if err != nil && e.err == nil {
		e.err = err
	}
	return n, err
}
