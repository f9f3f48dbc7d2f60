package dds

import (
	"fmt"
	"image"

	"github.com/mauserzjeh/dxt"
)

// DecodeLevel decompresses one mip level to RGBA on the CPU. The decoder is
// picked from the FourCC tag, not from the GPU format mapping.
func DecodeLevel(data []byte, fourCC string, width, height uint32) (*image.RGBA, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("dds: cannot decode empty level %dx%d", width, height)
	}

	// decode whole blocks, then crop to the level's extent
	pw, ph := (width+3)&^3, (height+3)&^3
	blockSize := 16
	if fourCC == "DXT1" {
		blockSize = 8
	}
	if need := int(pw/4) * int(ph/4) * blockSize; len(data) < need {
		return nil, fmt.Errorf("%w: %dx%d level needs %d bytes, have %d", ErrTruncatedFile, width, height, need, len(data))
	}
	var rgbaBytes []byte
	var err error
	switch fourCC {
	case "DXT1":
		rgbaBytes, err = dxt.DecodeDXT1(data, uint(pw), uint(ph))
	case "DXT3":
		rgbaBytes, err = dxt.DecodeDXT3(data, uint(pw), uint(ph))
	case "DXT5":
		rgbaBytes, err = dxt.DecodeDXT5(data, uint(pw), uint(ph))
	default:
		return nil, fmt.Errorf("%w: no CPU decoder for fourCC %q", ErrUnsupportedFormat, fourCC)
	}
	if err != nil {
		return nil, fmt.Errorf("dds: decode error: %w", err)
	}

	expectedLen := int(pw) * int(ph) * 4
	if len(rgbaBytes) != expectedLen {
		return nil, fmt.Errorf("dds: unexpected decoded byte length %d, want %d", len(rgbaBytes), expectedLen)
	}
	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	rowBytes := int(width) * 4
	for y := range int(height) {
		src := rgbaBytes[y*int(pw)*4:]
		copy(img.Pix[y*img.Stride:y*img.Stride+rowBytes], src[:rowBytes])
	}
	return img, nil
}

// Decode parses a whole DDS file and returns its base level as an image.
func Decode(dds []byte) (image.Image, error) {
	h, err := ParseHeader(dds)
	if err != nil {
		return nil, err
	}
	if err := checkMipCount(h.MipMapCount); err != nil {
		return nil, err
	}
	format, err := ResolveFormat(h.PixelFormat.FourCC)
	if err != nil {
		return nil, err
	}
	plan := PlanMipChain(h.Width, h.Height, h.MipMapCount, format.BlockSize)
	data := dds[HeaderSize:]
	if uint64(len(data)) < plan[0].Size {
		return nil, fmt.Errorf("%w: base level needs %d bytes, have %d", ErrTruncatedFile, plan[0].Size, len(data))
	}
	return DecodeLevel(data[:plan[0].Size], h.FourCC(), h.Width, h.Height)
}
