// Package texture picks a decoder for a texture file by its extension and
// loads batches of files onto a device concurrently.
package texture

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	vk "github.com/goki/vulkan"
	"golang.org/x/sync/errgroup"

	"github.com/erinpentecost/vktex/internal/dds"
	"github.com/erinpentecost/vktex/internal/gpu"
)

var ErrUnknownExtension = errors.New("texture: no decoder for extension")

// DecodeFunc loads the file at path into a texture made by factory.
type DecodeFunc func(path string, factory gpu.Factory, pool gpu.CommandBufferPool, layout vk.ImageLayout) (gpu.Resource, error)

type Loader struct {
	// Layout is the layout textures end up in.
	Layout vk.ImageLayout
	// Threads bounds LoadAll's concurrency. Zero or less means 4.
	Threads int

	mux      sync.RWMutex
	decoders map[string]DecodeFunc
}

// NewLoader returns a Loader with .dds registered to d.
func NewLoader(d *dds.Loader) *Loader {
	l := &Loader{
		Layout:   dds.DefaultOutputLayout,
		decoders: map[string]DecodeFunc{},
	}
	l.Register(".dds", d.Load)
	return l
}

// Register sets the decoder for ext, with or without the leading dot.
func (l *Loader) Register(ext string, fn DecodeFunc) {
	l.mux.Lock()
	defer l.mux.Unlock()
	l.decoders[normalizeExt(ext)] = fn
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func (l *Loader) decoder(path string) (DecodeFunc, error) {
	ext := strings.ToLower(filepath.Ext(path))
	l.mux.RLock()
	defer l.mux.RUnlock()
	fn, ok := l.decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w %q: %q", ErrUnknownExtension, ext, path)
	}
	return fn, nil
}

// Load uploads a single file.
func (l *Loader) Load(path string, factory gpu.Factory, pool gpu.CommandBufferPool) (gpu.Resource, error) {
	fn, err := l.decoder(path)
	if err != nil {
		return nil, err
	}
	return fn(path, factory, pool, l.Layout)
}

// LoadAll uploads every path, each through its own factory. Results are in
// path order. If any load fails, the textures already created are destroyed
// and the first error is returned.
func (l *Loader) LoadAll(
	ctx context.Context,
	paths []string,
	newFactory func() gpu.Factory,
	pool gpu.CommandBufferPool,
) ([]gpu.Resource, error) {
	threads := l.Threads
	if threads <= 0 {
		threads = 4
	}
	out := make([]gpu.Resource, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := l.Load(path, newFactory(), pool)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, res := range out {
			if res != nil {
				res.Destroy()
			}
		}
		return nil, err
	}
	return out, nil
}
