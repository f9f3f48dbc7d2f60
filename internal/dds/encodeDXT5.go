package dds

import (
	"encoding/binary"
	"image/color"
)

// compressDXT3Alpha stores the top four bits of each alpha, row by row.
func compressDXT3Alpha(px [16]color.RGBA) []byte {
	var packed uint64
	for i, p := range px {
		packed |= uint64(p.A>>4) << (4 * uint(i))
	}
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, packed)
	return out
}

// compressDXT5Alpha encodes an 8-step interpolated alpha block between the
// block's extremes.
func compressDXT5Alpha(px [16]color.RGBA) []byte {
	minA, maxA := uint8(255), uint8(0)
	for _, p := range px {
		minA = min(minA, p.A)
		maxA = max(maxA, p.A)
	}

	a0, a1 := maxA, minA
	var palette [8]uint8
	palette[0], palette[1] = a0, a1
	if a0 > a1 {
		for i := 1; i <= 6; i++ {
			palette[1+i] = uint8((uint32((7-i)*int(a0)+i*int(a1)) + 3) / 7)
		}
	} else {
		// a0 == a1: six-step mode with explicit 0 and 255.
		for i := 1; i <= 4; i++ {
			palette[1+i] = uint8((uint32((5-i)*int(a0)+i*int(a1)) + 2) / 5)
		}
		palette[6] = 0
		palette[7] = 255
	}

	var packed uint64
	for i, p := range px {
		best, bestDist := 0, 1<<30
		for j, a := range palette {
			d := int(p.A) - int(a)
			if d*d < bestDist {
				best, bestDist = j, d*d
			}
		}
		packed |= uint64(best) << (3 * uint(i))
	}

	out := make([]byte, 8)
	out[0], out[1] = a0, a1
	for i := range 6 {
		out[2+i] = byte(packed >> (8 * uint(i)))
	}
	return out
}
