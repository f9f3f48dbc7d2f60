package dds

import (
	"image"
	"math/bits"

	"golang.org/x/image/draw"
)

// nextPowerOfTwo rounds n up to a power of two. Zero becomes one.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	if n&(n-1) == 0 {
		return n
	}
	return 1 << bits.Len(uint(n))
}

// resizePowerOfTwo scales src so both sides are powers of two, which keeps
// every level of the chain block aligned down to 4x4.
func resizePowerOfTwo(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := nextPowerOfTwo(b.Dx()), nextPowerOfTwo(b.Dy())
	if w == b.Dx() && h == b.Dy() {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
