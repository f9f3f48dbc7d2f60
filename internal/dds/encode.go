package dds

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math/bits"

	"golang.org/x/image/draw"
)

// EncodeOptions controls Encode.
type EncodeOptions struct {
	// Mipmaps writes a full chain down to 1x1 along the longer side.
	Mipmaps bool
	// PowerOfTwo scales the image up to power-of-two sides first.
	PowerOfTwo bool
}

// Encode writes m encoded as a DDS file with codec into w.
func Encode(w io.Writer, m image.Image, codec Codec, opts EncodeOptions) error {
	if m.Bounds().Empty() {
		return errors.New("dds: empty image")
	}
	if codec != DXT1 && codec != DXT3 && codec != DXT5 {
		return fmt.Errorf("unknown codec %v", codec)
	}
	level := toRGBA(m)
	if opts.PowerOfTwo {
		level = resizePowerOfTwo(level)
	}
	width, height := level.Bounds().Dx(), level.Bounds().Dy()

	mipCount := uint32(1)
	if opts.Mipmaps {
		mipCount = uint32(bits.Len(uint(max(width, height))))
	}
	plan := PlanMipChain(uint32(width), uint32(height), mipCount, codec.BlockSize())

	h := newHeader(uint32(width), uint32(height), codec, plan)
	if _, err := w.Write(h.Bytes()); err != nil {
		return err
	}

	for _, lvl := range plan {
		if lvl.Level > 0 {
			level = downsample(level, lvl.Width, lvl.Height)
		}
		if err := writeLevel(w, level, lvl, codec); err != nil {
			return fmt.Errorf("write level %d: %w", lvl.Level, err)
		}
	}
	return nil
}

func newHeader(width, height uint32, codec Codec, plan MipPlan) *Header {
	h := &Header{
		Size:              ddsHeaderSize,
		Flags:             DDSD_CAPS | DDSD_HEIGHT | DDSD_WIDTH | DDSD_PIXELFORMAT | DDSD_LINEARSIZE,
		Height:            height,
		Width:             width,
		PitchOrLinearSize: uint32(plan[0].Size),
		PixelFormat: PixelFormat{
			Size:   ddsPfSize,
			Flags:  DDPF_FOURCC,
			FourCC: codec.FourCC(),
		},
		Caps: DDSCAPS_TEXTURE,
	}
	if len(plan) > 1 {
		h.Flags |= DDSD_MIPMAPCOUNT
		h.MipMapCount = uint32(len(plan))
		h.Caps |= DDSCAPS_COMPLEX | DDSCAPS_MIPMAP
	}
	return h
}

func toRGBA(m image.Image) *image.RGBA {
	if im, ok := m.(*image.RGBA); ok && im.Rect.Min == (image.Point{}) {
		return im
	}
	b := m.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), m, b.Min, draw.Src)
	return rgba
}

// downsample scales src to the next level. Zero extents are rendered as one
// pixel so the level still has a block to write.
func downsample(src *image.RGBA, w, h uint32) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, int(max(1, w)), int(max(1, h))))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func writeLevel(w io.Writer, img *image.RGBA, lvl MipLevel, codec Codec) error {
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	blocksAcross := max(1, (int(lvl.Width)+3)/4)
	blocksDown := max(1, (int(lvl.Height)+3)/4)

	out := make([]byte, 0, lvl.Size)
	for by := range blocksDown {
		for bx := range blocksAcross {
			var px [16]color.RGBA
			i := 0
			for dy := range 4 {
				for dx := range 4 {
					x := bx*4 + dx
					y := by*4 + dy
					if x < width && y < height {
						px[i] = img.RGBAAt(x, y)
					}
					i++
				}
			}

			switch codec {
			case DXT3:
				out = append(out, compressDXT3Alpha(px)...)
			case DXT5:
				out = append(out, compressDXT5Alpha(px)...)
			}
			out = append(out, compressDXT1Color(px)...)
		}
	}
	_, err := w.Write(out)
	return err
}
