package dds

import (
	"encoding/binary"
	"fmt"
)

// PixelFormat is the 32-byte DDS_PIXELFORMAT block.
type PixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      [4]byte
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

// Header is the fixed 128-byte file header, magic included.
type Header struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       PixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

// HasFlags reports whether all of the DDSD_* bits in f are set.
func (h *Header) HasFlags(f uint32) bool { return h.Flags&f == f }

// FourCC returns the pixel format tag as a string, e.g. "DXT1".
func (h *Header) FourCC() string { return string(h.PixelFormat.FourCC[:]) }

// cursor reads little-endian fields in file order.
type cursor struct {
	b   []byte
	off int
}

func (c *cursor) u32() uint32 {
	v := binary.LittleEndian.Uint32(c.b[c.off:])
	c.off += 4
	return v
}

func (c *cursor) tag() [4]byte {
	var t [4]byte
	copy(t[:], c.b[c.off:c.off+4])
	c.off += 4
	return t
}

// ParseHeader reads the header from the first HeaderSize bytes of b.
// Absent fields are returned as stored; nothing is inferred from flags.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrMalformedHeader, HeaderSize, len(b))
	}
	if string(b[0:4]) != ddsMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrMalformedHeader, b[0:4])
	}

	c := &cursor{b: b[:HeaderSize], off: 4}
	h := &Header{}
	h.Size = c.u32()
	if h.Size != ddsHeaderSize {
		return nil, fmt.Errorf("%w: header size %d, want %d", ErrMalformedHeader, h.Size, ddsHeaderSize)
	}
	h.Flags = c.u32()
	h.Height = c.u32()
	h.Width = c.u32()
	h.PitchOrLinearSize = c.u32()
	h.Depth = c.u32()
	h.MipMapCount = c.u32()
	for i := range h.Reserved1 {
		h.Reserved1[i] = c.u32()
	}

	pf := &h.PixelFormat
	pf.Size = c.u32()
	pf.Flags = c.u32()
	pf.FourCC = c.tag()
	pf.RGBBitCount = c.u32()
	pf.RBitMask = c.u32()
	pf.GBitMask = c.u32()
	pf.BBitMask = c.u32()
	pf.ABitMask = c.u32()

	h.Caps = c.u32()
	h.Caps2 = c.u32()
	h.Caps3 = c.u32()
	h.Caps4 = c.u32()
	h.Reserved2 = c.u32()
	return h, nil
}

// Bytes serializes h back to its 128-byte form.
func (h *Header) Bytes() []byte {
	out := make([]byte, HeaderSize)
	copy(out, ddsMagic)
	put := func(off int, v uint32) {
		binary.LittleEndian.PutUint32(out[off:], v)
	}
	put(4, h.Size)
	put(8, h.Flags)
	put(12, h.Height)
	put(16, h.Width)
	put(20, h.PitchOrLinearSize)
	put(24, h.Depth)
	put(28, h.MipMapCount)
	for i, v := range h.Reserved1 {
		put(32+4*i, v)
	}

	pf := h.PixelFormat
	put(pfOffset+0, pf.Size)
	put(pfOffset+4, pf.Flags)
	copy(out[pfOffset+8:], pf.FourCC[:])
	put(pfOffset+12, pf.RGBBitCount)
	put(pfOffset+16, pf.RBitMask)
	put(pfOffset+20, pf.GBitMask)
	put(pfOffset+24, pf.BBitMask)
	put(pfOffset+28, pf.ABitMask)

	put(108, h.Caps)
	put(112, h.Caps2)
	put(116, h.Caps3)
	put(120, h.Caps4)
	put(124, h.Reserved2)
	return out
}
