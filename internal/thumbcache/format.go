package thumbcache

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Format describes one kind of derived image.
type Format struct {
	// Name is unique per format and names the disk directory.
	Name string
	// Size is the edge length of the square in pixels.
	Size int
	// Opaque formats are drawn on a white background.
	Opaque bool
}

// Format names.
const (
	SquareFormatName       = "photobrowse.square.32bit.bgra"
	OpaqueSquareFormatName = "photobrowse.square.32bit.bgr"
)

// DefaultFormat returns the transparent square format of the given size.
func DefaultFormat(size int) Format {
	return Format{Name: SquareFormatName, Size: size}
}

// OpaqueFormat returns the opaque square format of the given size.
func OpaqueFormat(size int) Format {
	return Format{Name: OpaqueSquareFormatName, Size: size, Opaque: true}
}

// DrawFunc renders src into dst, which is Size x Size and transparent.
type DrawFunc func(dst draw.Image, src image.Image)

// SquareImage returns the centred square crop of b: the full bounds when b
// is already square, otherwise a square of the smaller dimension centred
// along the longer one. The offset is rounded half to even.
func SquareImage(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w == h {
		return b
	}
	side := min(w, h)
	origin := b.Min
	if w <= h {
		origin.Y += int(math.RoundToEven(float64(h-side) / 2))
	} else {
		origin.X += int(math.RoundToEven(float64(w-side) / 2))
	}
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(side, side))}
}

// DrawSquare returns the DrawFunc of a format: fill white when opaque, then
// scale the square crop of src onto dst.
func DrawSquare(opaque bool) DrawFunc {
	return func(dst draw.Image, src image.Image) {
		bounds := dst.Bounds()
		if opaque {
			draw.Draw(dst, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
		}
		draw.CatmullRom.Scale(dst, bounds, src, SquareImage(src.Bounds()), draw.Over, nil)
	}
}
