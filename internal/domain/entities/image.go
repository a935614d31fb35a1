package entities

// ImageFormat names a source image container recognised by the decoders
type ImageFormat string

// Recognised image formats, in probing order
const (
	FormatPNG     ImageFormat = "PNG"
	FormatBMP     ImageFormat = "BMP"
	FormatGIF     ImageFormat = "GIF"
	FormatJPEG    ImageFormat = "JPEG"
	FormatWEBP    ImageFormat = "WEBP"
	FormatUnknown ImageFormat = "UNKNOWN"
)

// ImageData is a decoded image as non-premultiplied RGBA, 8 bits per channel.
// Pix holds Width*Height*4 bytes, row-major, no padding between rows.
type ImageData struct {
	Pix    []byte
	Width  uint32
	Height uint32
}

// PixelCount returns Width*Height
func (d *ImageData) PixelCount() uint64 {
	return uint64(d.Width) * uint64(d.Height)
}

// SizeCommand carries the width and height requested by the caller.
// 0 keeps the original length of that axis, a negative value follows the
// ratio of the other axis, and both negative means "do nothing".
type SizeCommand struct {
	Width  int64
	Height int64
}

// OutputSize is a resolved output size; both fields are at least 1
type OutputSize struct {
	Width  uint32
	Height uint32
}

// PixelCount returns Width*Height
func (s OutputSize) PixelCount() uint64 {
	return uint64(s.Width) * uint64(s.Height)
}
