package dds

import (
	"fmt"
	"strings"
)

type Codec int

const (
	// DXT1 has 1-bit alpha at most.
	DXT1 Codec = iota
	// DXT3 stores 4-bit explicit alpha.
	DXT3
	// DXT5 stores interpolated alpha.
	DXT5
)

func (c Codec) String() string {
	switch c {
	case DXT1:
		return "DXT1"
	case DXT3:
		return "DXT3"
	case DXT5:
		return "DXT5"
	default:
		return fmt.Sprintf("Codec(%d)", int(c))
	}
}

// FourCC is the pixel format tag written for c.
func (c Codec) FourCC() [4]byte {
	var t [4]byte
	copy(t[:], c.String())
	return t
}

// BlockSize is the number of bytes per 4x4 block.
func (c Codec) BlockSize() uint32 {
	if c == DXT1 {
		return 8
	}
	return 16
}

// ParseCodec accepts "dxt1", "DXT3" and so on.
func ParseCodec(s string) (Codec, error) {
	for _, c := range []Codec{DXT1, DXT3, DXT5} {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown codec %q", s)
}
