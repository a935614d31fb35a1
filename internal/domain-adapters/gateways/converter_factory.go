package gateways

import (
	"fmt"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces/gateways"
	domainservices "github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces/services"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/services"
)

// Decoders returns every image decoder in probing order
func Decoders() []gateways.ImageDecoder {
	return []gateways.ImageDecoder{
		NewPNGDecoder(),
		NewBMPDecoder(),
		NewGIFDecoder(),
		NewJPEGDecoder(),
		NewWEBPDecoder(),
	}
}

// NewImageConverter assembles the conversion pipeline described by settings
func NewImageConverter(settings entities.PluginSettings, logger interfaces.Logger) (domainservices.Converter, error) {
	resampler, err := NewResampler(settings.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}
	encoder, err := NewPNGEncoder(settings.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	return services.NewConverterService(
		Decoders(),
		resampler,
		encoder,
		services.ConverterConfig{MaxPixels: settings.MaxPixels},
		logger,
	), nil
}
