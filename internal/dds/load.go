package dds

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	vk "github.com/goki/vulkan"

	"github.com/erinpentecost/vktex/internal/gpu"
)

// DefaultOutputLayout is the layout textures are left in after upload.
const DefaultOutputLayout = vk.ImageLayoutShaderReadOnlyOptimal

// Loader turns DDS files into device textures. It keeps no state between
// calls and may be shared between goroutines.
type Loader struct {
	// Logf receives advisory diagnostics. Defaults to fmt.Printf.
	Logf func(format string, args ...any)
	// ExactFallback sizes the base-level fallback upload from width and
	// height instead of width alone.
	ExactFallback bool
}

var defaultLoader = &Loader{}

func (l *Loader) logf(format string, args ...any) {
	if l.Logf != nil {
		l.Logf(format, args...)
		return
	}
	fmt.Printf(format, args...)
}

// Info is everything the loader derives from a header before touching the GPU.
type Info struct {
	Header    *Header
	Format    Format
	Plan      MipPlan
	Selection Selection
}

// readInfo reads and validates the header from r.
func (l *Loader) readInfo(name string, r io.Reader) (*Info, error) {
	raw := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: read header %q: %w", ErrMalformedHeader, name, err)
	}
	h, err := ParseHeader(raw)
	if err != nil {
		return nil, fmt.Errorf("parse header %q: %w", name, err)
	}
	if h.Width == 0 || h.Height == 0 {
		return nil, fmt.Errorf("%w: %q has empty extent %dx%d", ErrMalformedHeader, name, h.Width, h.Height)
	}
	if err := checkMipCount(h.MipMapCount); err != nil {
		return nil, fmt.Errorf("parse header %q: %w", name, err)
	}
	format, err := ResolveFormat(h.PixelFormat.FourCC)
	if err != nil {
		return nil, fmt.Errorf("resolve format %q: %w", name, err)
	}
	plan := PlanMipChain(h.Width, h.Height, h.MipMapCount, format.BlockSize)
	return &Info{
		Header:    h,
		Format:    format,
		Plan:      plan,
		Selection: selectLevel(plan, format, l.ExactFallback),
	}, nil
}

// ReadInfo parses the header of the file at path without uploading anything.
func (l *Loader) ReadInfo(path string) (*Info, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.readInfo(path, f)
}

// ReadInfo runs Loader.ReadInfo with the default loader.
func ReadInfo(path string) (*Info, error) {
	return defaultLoader.ReadInfo(path)
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrFileNotFound, err)
		}
		return nil, fmt.Errorf("%w: open %q: %w", ErrFileNotFound, path, err)
	}
	return f, nil
}

// Load reads the DDS file at path and uploads it through factory and pool.
// On failure it returns a nil resource and an error wrapping one of the
// package's Err values.
func (l *Loader) Load(
	path string,
	factory gpu.Factory,
	pool gpu.CommandBufferPool,
	layout vk.ImageLayout,
) (gpu.Resource, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.LoadReader(path, f, factory, pool, layout)
}

// LoadReader is Load for an already open stream. name is only used in errors.
func (l *Loader) LoadReader(
	name string,
	r io.Reader,
	factory gpu.Factory,
	pool gpu.CommandBufferPool,
	layout vk.ImageLayout,
) (gpu.Resource, error) {
	info, err := l.readInfo(name, r)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read payload %q: %w", ErrTruncatedFile, name, err)
	}
	tex, err := l.Upload(data, info.Plan, info.Format, factory, pool, layout)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	return tex, nil
}

// Load runs Loader.Load with the default loader.
func Load(
	path string,
	factory gpu.Factory,
	pool gpu.CommandBufferPool,
	layout vk.ImageLayout,
) (gpu.Resource, error) {
	return defaultLoader.Load(path, factory, pool, layout)
}
