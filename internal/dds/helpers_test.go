package dds

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// rawHeader builds a minimal compressed-texture header.
func rawHeader(w, h, mips uint32, fourCC string) []byte {
	hd := &Header{
		Size:   ddsHeaderSize,
		Flags:  DDSD_CAPS | DDSD_HEIGHT | DDSD_WIDTH | DDSD_PIXELFORMAT,
		Width:  w,
		Height: h,
		PixelFormat: PixelFormat{
			Size:  ddsPfSize,
			Flags: DDPF_FOURCC,
		},
		Caps: DDSCAPS_TEXTURE,
	}
	copy(hd.PixelFormat.FourCC[:], fourCC)
	if mips > 0 {
		hd.Flags |= DDSD_MIPMAPCOUNT
		hd.MipMapCount = mips
	}
	return hd.Bytes()
}

// patterned returns n bytes where each level's bytes hold its level index.
func patterned(plan MipPlan) []byte {
	out := make([]byte, plan.TotalSize())
	for _, lvl := range plan {
		for i := lvl.Offset; i < lvl.Offset+lvl.Size; i++ {
			out[i] = byte(lvl.Level + 1)
		}
	}
	return out
}

func writeFile(t *testing.T, name string, parts ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, bytes.Join(parts, nil), 0666))
	return path
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / max(1, w-1)),
				G: uint8(y * 255 / max(1, h-1)),
				B: 64,
				A: 255,
			})
		}
	}
	return img
}

func encodeFile(t *testing.T, img image.Image, codec Codec, mipmaps bool) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, codec, EncodeOptions{Mipmaps: mipmaps}))
	return writeFile(t, fmt.Sprintf("%s.dds", codec), buf.Bytes())
}

// recordingLoader collects log lines instead of printing them.
func recordingLoader() (*Loader, *[]string) {
	var lines []string
	return &Loader{Logf: func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}}, &lines
}
