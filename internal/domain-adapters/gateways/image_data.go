// Package gateways implements domain gateway interfaces for image codecs,
// resampling and release file handling.
package gateways

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
)

// toImageData flattens any decoded image into tightly packed NRGBA pixels
// with the origin moved to (0, 0)
func toImageData(img image.Image) *entities.ImageData {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch m := img.(type) {
	case *image.NRGBA64:
		return highBytes(b, func(x, y int) (r, g, bl, a uint16) {
			c := m.NRGBA64At(x, y)
			return c.R, c.G, c.B, c.A
		})
	case *image.RGBA64:
		return highBytes(b, func(x, y int) (r, g, bl, a uint16) {
			c := m.RGBA64At(x, y)
			if c.A != 0xffff {
				n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
				return n.R, n.G, n.B, n.A
			}
			return c.R, c.G, c.B, c.A
		})
	case *image.Gray16:
		return highBytes(b, func(x, y int) (r, g, bl, a uint16) {
			v := m.Gray16At(x, y).Y
			return v, v, v, 0xffff
		})
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || b.Min != (image.Point{}) || nrgba.Stride != 4*w {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.Draw(nrgba, nrgba.Bounds(), img, b.Min, xdraw.Src)
	}

	return &entities.ImageData{
		Pix:    nrgba.Pix[:4*w*h],
		Width:  uint32(w),
		Height: uint32(h),
	}
}

// highBytes keeps the high byte of every 16-bit sample, without going
// through premultiplied alpha
func highBytes(b image.Rectangle, at func(x, y int) (r, g, bl, a uint16)) *entities.ImageData {
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, 4*w*h)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := at(x, y)
			pix[i+0] = byte(r >> 8)
			pix[i+1] = byte(g >> 8)
			pix[i+2] = byte(bl >> 8)
			pix[i+3] = byte(a >> 8)
			i += 4
		}
	}
	return &entities.ImageData{Pix: pix, Width: uint32(w), Height: uint32(h)}
}

// toNRGBA wraps pixel data without copying
func toNRGBA(d *entities.ImageData) *image.NRGBA {
	return &image.NRGBA{
		Pix:    d.Pix,
		Stride: int(d.Width) * 4,
		Rect:   image.Rect(0, 0, int(d.Width), int(d.Height)),
	}
}
