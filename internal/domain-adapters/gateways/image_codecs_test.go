package gateways

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/bmp"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces/gateways"
)

// lossless 1x1 WebP
const tinyWEBP = "UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA=="

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	return img
}

func encodeSamples(t *testing.T) map[entities.ImageFormat][]byte {
	t.Helper()
	src := testImage(4, 8)
	samples := make(map[entities.ImageFormat][]byte)

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	samples[entities.FormatPNG] = append([]byte(nil), buf.Bytes()...)

	buf.Reset()
	if err := bmp.Encode(&buf, src); err != nil {
		t.Fatalf("bmp.Encode() error = %v", err)
	}
	samples[entities.FormatBMP] = append([]byte(nil), buf.Bytes()...)

	buf.Reset()
	if err := gif.Encode(&buf, src, nil); err != nil {
		t.Fatalf("gif.Encode() error = %v", err)
	}
	samples[entities.FormatGIF] = append([]byte(nil), buf.Bytes()...)

	buf.Reset()
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	samples[entities.FormatJPEG] = append([]byte(nil), buf.Bytes()...)

	webpData, err := base64.StdEncoding.DecodeString(tinyWEBP)
	if err != nil {
		t.Fatalf("decode webp sample: %v", err)
	}
	samples[entities.FormatWEBP] = webpData

	return samples
}

func allDecoders() []gateways.ImageDecoder {
	return Decoders()
}

func TestDecoders_AcceptOwnFormat(t *testing.T) {
	samples := encodeSamples(t)

	wantSize := map[entities.ImageFormat][2]uint32{
		entities.FormatPNG:  {4, 8},
		entities.FormatBMP:  {4, 8},
		entities.FormatGIF:  {4, 8},
		entities.FormatJPEG: {4, 8},
		entities.FormatWEBP: {1, 1},
	}

	for _, decoder := range allDecoders() {
		t.Run(string(decoder.Format()), func(t *testing.T) {
			img, err := decoder.Decode(bytes.NewReader(samples[decoder.Format()]))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			want := wantSize[decoder.Format()]
			if img.Width != want[0] || img.Height != want[1] {
				t.Errorf("size = %dx%d, want %dx%d", img.Width, img.Height, want[0], want[1])
			}
			if uint64(len(img.Pix)) != img.PixelCount()*4 {
				t.Errorf("len(Pix) = %d, want %d", len(img.Pix), img.PixelCount()*4)
			}
		})
	}
}

func TestDecoders_RejectOtherFormats(t *testing.T) {
	samples := encodeSamples(t)

	for _, decoder := range allDecoders() {
		for format, data := range samples {
			if format == decoder.Format() {
				continue
			}
			t.Run(string(decoder.Format())+"/"+string(format), func(t *testing.T) {
				if _, err := decoder.Decode(bytes.NewReader(data)); err == nil {
					t.Errorf("%s decoder accepted %s data", decoder.Format(), format)
				}
			})
		}
	}
}

func TestPNGDecoder_LosslessPixels(t *testing.T) {
	src := testImage(3, 2)
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	img, err := NewPNGDecoder().Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if diff := cmp.Diff(src.Pix, img.Pix); diff != "" {
		t.Errorf("pixels mismatch (-want +got):\n%s", diff)
	}
}

func TestPNGDecoder_GrayscaleExpandsToRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(0, 0, color.Gray{Y: 0xff})
	gray.SetGray(1, 0, color.Gray{Y: 0x00})

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		t.Fatal(err)
	}

	img, err := NewPNGDecoder().Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	want := []byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0xff}
	if diff := cmp.Diff(want, img.Pix); diff != "" {
		t.Errorf("pixels mismatch (-want +got):\n%s", diff)
	}
}

func TestPNGDecoder_PaletteTransparency(t *testing.T) {
	palette := color.Palette{
		color.NRGBA{R: 1, G: 2, B: 3, A: 0xff},
		color.NRGBA{R: 4, G: 5, B: 6, A: 0},
	}
	paletted := image.NewPaletted(image.Rect(0, 0, 2, 1), palette)
	paletted.SetColorIndex(0, 0, 0)
	paletted.SetColorIndex(1, 0, 1)

	var buf bytes.Buffer
	if err := png.Encode(&buf, paletted); err != nil {
		t.Fatal(err)
	}

	img, err := NewPNGDecoder().Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if got := img.Pix[0:4]; !bytes.Equal(got, []byte{1, 2, 3, 0xff}) {
		t.Errorf("opaque pixel = %v", got)
	}
	if alpha := img.Pix[7]; alpha != 0 {
		t.Errorf("transparent pixel alpha = %d, want 0", alpha)
	}
}

func TestPNGDecoder_Truncated(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(16, 16)); err != nil {
		t.Fatal(err)
	}
	truncated := buf.Bytes()[:buf.Len()/2]

	_, err := NewPNGDecoder().Decode(bytes.NewReader(truncated))
	if got := entities.KindOf(err); got != entities.FailureDecoding {
		t.Errorf("kind = %v, want DecodingError", got)
	}
}

func TestGIFDecoder_UsesFrameRectangle(t *testing.T) {
	palette := color.Palette{color.Black, color.White}
	frame := image.NewPaletted(image.Rect(2, 3, 5, 5), palette)

	var buf bytes.Buffer
	err := gif.EncodeAll(&buf, &gif.GIF{
		Image: []*image.Paletted{frame},
		Delay: []int{0},
		Config: image.Config{
			ColorModel: palette,
			Width:      10,
			Height:     10,
		},
	})
	if err != nil {
		t.Fatalf("gif.EncodeAll() error = %v", err)
	}

	img, err := NewGIFDecoder().Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if img.Width != 3 || img.Height != 2 {
		t.Errorf("size = %dx%d, want 3x2", img.Width, img.Height)
	}
}

func TestJPEGDecoder_GrayIsOpaque(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gray, nil); err != nil {
		t.Fatal(err)
	}

	img, err := NewJPEGDecoder().Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0xff {
			t.Fatalf("alpha at %d = %d, want 255", i, img.Pix[i])
		}
	}
}

func TestWEBPDecoder_RejectsUnsignedStream(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("RIFF")},
		{"wrong form type", []byte("RIFF\x00\x00\x00\x00WAVE")},
		{"text", []byte("hello, world, this is not an image")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWEBPDecoder().Decode(bytes.NewReader(tt.data))
			if got := entities.KindOf(err); got != entities.FailureUnsupported {
				t.Errorf("kind = %v, want Unsupported", got)
			}
		})
	}
}

func TestWEBPDecoder_CorruptPayload(t *testing.T) {
	data := []byte("RIFF\x10\x00\x00\x00WEBPVP8 \x00\x00\x00\x00")

	_, err := NewWEBPDecoder().Decode(bytes.NewReader(data))
	if got := entities.KindOf(err); got != entities.FailureDecoding {
		t.Errorf("kind = %v, want DecodingError", got)
	}
}

func TestBMPDecoder_NonBitmapIsUnsupported(t *testing.T) {
	_, err := NewBMPDecoder().Decode(bytes.NewReader([]byte("definitely not a bitmap file")))
	if got := entities.KindOf(err); got != entities.FailureUnsupported {
		t.Errorf("kind = %v, want Unsupported", got)
	}
}

func TestToImageData_MovesOrigin(t *testing.T) {
	src := testImage(6, 6)
	sub := src.SubImage(image.Rect(2, 2, 4, 5))

	img := toImageData(sub)
	if img.Width != 2 || img.Height != 3 {
		t.Fatalf("size = %dx%d, want 2x3", img.Width, img.Height)
	}

	want := src.NRGBAAt(2, 2)
	got := color.NRGBA{R: img.Pix[0], G: img.Pix[1], B: img.Pix[2], A: img.Pix[3]}
	if got != want {
		t.Errorf("first pixel = %v, want %v", got, want)
	}
}
