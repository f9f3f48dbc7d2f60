package dds

import (
	"encoding/binary"
	"image/color"
	"math"
)

// vec3 is an RGB point in [0, 255] space.
type vec3 [3]float64

func (a vec3) dot(b vec3) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func (a vec3) add(b vec3) vec3    { return vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a vec3) scale(s float64) vec3 {
	return vec3{a[0] * s, a[1] * s, a[2] * s}
}

func (a vec3) normalize() vec3 {
	l := math.Sqrt(a.dot(a))
	if l == 0 {
		return vec3{}
	}
	return a.scale(1 / l)
}

// principalAxis estimates the dominant direction of the block's colors
// with a few rounds of power iteration on the covariance matrix.
func principalAxis(px [16]color.RGBA, mean vec3) vec3 {
	var s [3][3]float64
	for _, p := range px {
		d := vec3{float64(p.R), float64(p.G), float64(p.B)}.add(mean.scale(-1))
		for i := range 3 {
			for j := range 3 {
				s[i][j] += d[i] * d[j]
			}
		}
	}

	v := vec3{1, 1, 1}.normalize()
	for range 5 {
		var next vec3
		for i := range 3 {
			next[i] = s[i][0]*v[0] + s[i][1]*v[1] + s[i][2]*v[2]
		}
		if next == (vec3{}) {
			break
		}
		v = next.normalize()
	}
	return v
}

// compressDXT1Color encodes the 8-byte color half of a block. Endpoints are
// the extremes of the block projected onto its principal axis.
func compressDXT1Color(px [16]color.RGBA) []byte {
	var mean vec3
	for _, p := range px {
		mean = mean.add(vec3{float64(p.R), float64(p.G), float64(p.B)})
	}
	mean = mean.scale(1.0 / 16)

	axis := principalAxis(px, mean)
	minProj, maxProj := math.MaxFloat64, -math.MaxFloat64
	for _, p := range px {
		proj := vec3{float64(p.R), float64(p.G), float64(p.B)}.add(mean.scale(-1)).dot(axis)
		minProj = min(minProj, proj)
		maxProj = max(maxProj, proj)
	}

	c0 := to565(mean.add(axis.scale(maxProj)))
	c1 := to565(mean.add(axis.scale(minProj)))
	// c0 > c1 selects the four-color palette.
	if c0 < c1 {
		c0, c1 = c1, c0
	}

	col0, col1 := from565(c0), from565(c1)
	palette := [4][3]uint8{col0, col1}
	for i := range 3 {
		palette[2][i] = uint8((2*uint16(col0[i]) + uint16(col1[i]) + 1) / 3)
		palette[3][i] = uint8((uint16(col0[i]) + 2*uint16(col1[i]) + 1) / 3)
	}

	var packed uint32
	for i, p := range px {
		best, bestDist := 0, math.MaxInt
		for j, c := range palette {
			dr := int(p.R) - int(c[0])
			dg := int(p.G) - int(c[1])
			db := int(p.B) - int(c[2])
			if d := dr*dr + dg*dg + db*db; d < bestDist {
				best, bestDist = j, d
			}
		}
		packed |= uint32(best&0x3) << (2 * uint(i))
	}

	out := make([]byte, 8)
	binary.LittleEndian.PutUint16(out, c0)
	binary.LittleEndian.PutUint16(out[2:], c1)
	binary.LittleEndian.PutUint32(out[4:], packed)
	return out
}

func to565(c vec3) uint16 {
	q := func(v float64) uint32 { return uint32(math.Round(math.Max(0, math.Min(255, v)))) }
	return uint16((q(c[0])>>3)<<11 | (q(c[1])>>2)<<5 | q(c[2])>>3)
}

func from565(v uint16) [3]uint8 {
	return [3]uint8{
		uint8(((v >> 11) & 0x1F) << 3),
		uint8(((v >> 5) & 0x3F) << 2),
		uint8((v & 0x1F) << 3),
	}
}
