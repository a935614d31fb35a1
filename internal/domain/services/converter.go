package services

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces/gateways"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces/services"
)

// ConverterConfig holds limits applied by the converter
type ConverterConfig struct {
	// MaxPixels rejects outputs larger than this many pixels (0 = unlimited)
	MaxPixels uint64
}

// converterService implements Converter on top of decoder, resampler and encoder gateways
type converterService struct {
	decoders  []gateways.ImageDecoder
	resampler gateways.Resampler
	encoder   gateways.ImageEncoder
	maxPixels uint64
	logger    interfaces.Logger
}

// NewConverterService creates a converter. Decoders are tried in the given order.
func NewConverterService(
	decoders []gateways.ImageDecoder,
	resampler gateways.Resampler,
	encoder gateways.ImageEncoder,
	config ConverterConfig,
	logger interfaces.Logger,
) services.Converter {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &converterService{
		decoders:  decoders,
		resampler: resampler,
		encoder:   encoder,
		maxPixels: config.MaxPixels,
		logger:    logger,
	}
}

// DetectFormat returns the format of the first decoder able to read path
func (s *converterService) DetectFormat(path string) entities.ImageFormat {
	_, format, err := s.readImage(path)
	if err != nil {
		s.logger.Debug("image type not detected", interfaces.F("path", path), interfaces.F("error", err))
		return entities.FormatUnknown
	}
	return format
}

// ToResizedPNG decodes src, resizes it according to cmd and writes a PNG to dst.
// When cmd yields no output size, dst is left untouched and nil is returned.
func (s *converterService) ToResizedPNG(ctx context.Context, src, dst string, cmd entities.SizeCommand) error {
	img, format, err := s.readImage(src)
	if err != nil {
		return err
	}

	if img.Width == 0 || img.Height == 0 {
		return entities.NewConversionError(entities.FailureInputSize, "read image",
			fmt.Errorf("%s image has size %dx%d", format, img.Width, img.Height))
	}

	size, ok := ComputeOutputSize(cmd, img.Width, img.Height)
	if !ok {
		s.logger.Debug("no output size, skipping",
			interfaces.F("src", src),
			interfaces.F("width", cmd.Width),
			interfaces.F("height", cmd.Height))
		return nil
	}

	if s.maxPixels > 0 && size.PixelCount() > s.maxPixels {
		return entities.NewConversionError(entities.FailureLimits, "resize",
			fmt.Errorf("output %dx%d exceeds %d pixels", size.Width, size.Height, s.maxPixels))
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("conversion cancelled: %w", err)
	}

	resized, err := s.resampler.Resample(ctx, img, size)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("conversion cancelled: %w", err)
	}

	if err := s.writeImage(dst, resized); err != nil {
		return err
	}

	s.logger.Info("converted image",
		interfaces.F("src", src),
		interfaces.F("format", format),
		interfaces.F("dst", dst),
		interfaces.F("size", fmt.Sprintf("%dx%d", size.Width, size.Height)))

	return nil
}

// readImage reads path once and tries every decoder in order.
// When all decoders fail, the last decoder's error is returned.
func (s *converterService) readImage(path string) (*entities.ImageData, entities.ImageFormat, error) {
	//nolint:gosec // G304: path is provided by the host for conversion
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, entities.FormatUnknown, entities.IOFailure("read image", err)
	}

	lastErr := error(entities.NewConversionError(entities.FailureUnsupported, "read image", errors.New("no decoders configured")))
	for _, decoder := range s.decoders {
		img, err := decoder.Decode(bytes.NewReader(data))
		if err == nil {
			return img, decoder.Format(), nil
		}
		lastErr = err
	}

	return nil, entities.FormatUnknown, lastErr
}

// writeImage encodes img to path, removing the partial file on failure
func (s *converterService) writeImage(path string, img *entities.ImageData) (err error) {
	//nolint:gosec // G304: path is provided by the host for conversion output
	f, err := os.Create(path)
	if err != nil {
		return entities.IOFailure("create output", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = entities.IOFailure("close output", closeErr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	w := bufio.NewWriter(f)
	if err := s.encoder.Encode(w, img); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return entities.IOFailure("write output", err)
	}

	return nil
}
