// Package services implements domain business logic and use cases.
package services

import (
	"math"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// ComputeOutputSize resolves a size command against the input size.
// It returns false when both commands are negative, meaning no output is produced.
func ComputeOutputSize(cmd entities.SizeCommand, inputWidth, inputHeight uint32) (entities.OutputSize, bool) {
	if cmd.Width < 0 && cmd.Height < 0 {
		return entities.OutputSize{}, false
	}

	// 0 keeps the original length of the axis
	width := cmd.Width
	if width == 0 {
		width = int64(inputWidth)
	}
	height := cmd.Height
	if height == 0 {
		height = int64(inputHeight)
	}

	// A negative axis follows the scale of the other one
	var outWidth, outHeight uint32
	if width < 0 {
		ratio := float64(height) / float64(inputHeight)
		outWidth = truncate(float64(inputWidth) * ratio)
	} else {
		outWidth = wrap(width)
	}
	if height < 0 {
		ratio := float64(width) / float64(inputWidth)
		outHeight = truncate(float64(inputHeight) * ratio)
	} else {
		outHeight = wrap(height)
	}

	if outWidth == 0 {
		outWidth = 1
	}
	if outHeight == 0 {
		outHeight = 1
	}

	return entities.OutputSize{Width: outWidth, Height: outHeight}, true
}

// truncate converts toward zero, saturating at the uint32 range
func truncate(v float64) uint32 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= float64(^uint32(0)):
		return ^uint32(0)
	default:
		return uint32(v)
	}
}

// wrap keeps the low 32 bits, so 1<<32 becomes 0 (and then 1 pixel)
func wrap(v int64) uint32 {
	return uint32(v) //nolint:gosec // G115: truncation is the intended conversion
}
