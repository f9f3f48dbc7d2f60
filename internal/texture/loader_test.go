package texture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/require"

	"github.com/erinpentecost/vktex/internal/dds"
	"github.com/erinpentecost/vktex/internal/gpu"
	"github.com/erinpentecost/vktex/internal/hostgpu"
)

func quiet() *dds.Loader {
	return &dds.Loader{Logf: func(string, ...any) {}}
}

func writeDDS(t *testing.T, dir, name string, size int, codec dds.Codec) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	img.SetRGBA(0, 0, color.RGBA{A: 255})
	var buf bytes.Buffer
	require.NoError(t, dds.Encode(&buf, img, codec, dds.EncodeOptions{Mipmaps: true}))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0666))
	return path
}

// factories hands out host factories and remembers them.
type factories struct {
	mux  sync.Mutex
	made []*hostgpu.Factory
}

func (f *factories) new() gpu.Factory {
	f.mux.Lock()
	defer f.mux.Unlock()
	hf := hostgpu.NewFactory()
	f.made = append(f.made, hf)
	return hf
}

func (f *factories) textures() []*hostgpu.Texture {
	var out []*hostgpu.Texture
	for _, hf := range f.made {
		out = append(out, hf.Created...)
	}
	return out
}

func TestLoadDispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeDDS(t, dir, "Rock.DDS", 16, dds.DXT1)

	l := NewLoader(quiet())
	res, err := l.Load(path, hostgpu.NewFactory(), &hostgpu.Pool{})
	require.NoError(t, err)
	require.Equal(t, uint32(2), res.Width())
	require.Equal(t, vk.FormatBc1RgbaUnormBlock, res.Format())

	_, err = l.Load(filepath.Join(dir, "rock.png"), hostgpu.NewFactory(), &hostgpu.Pool{})
	require.ErrorIs(t, err, ErrUnknownExtension)
}

func TestRegister(t *testing.T) {
	l := NewLoader(quiet())
	var got string
	l.Register("KTX", func(path string, f gpu.Factory, p gpu.CommandBufferPool, layout vk.ImageLayout) (gpu.Resource, error) {
		got = path
		require.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, layout)
		return nil, errors.New("not implemented")
	})
	_, err := l.Load("a/b.ktx", hostgpu.NewFactory(), &hostgpu.Pool{})
	require.EqualError(t, err, "not implemented")
	require.Equal(t, "a/b.ktx", got)
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeDDS(t, dir, "a.dds", 64, dds.DXT1),
		writeDDS(t, dir, "b.dds", 32, dds.DXT3),
		writeDDS(t, dir, "c.dds", 16, dds.DXT5),
	}

	l := NewLoader(quiet())
	l.Threads = 2
	l.Layout = vk.ImageLayoutGeneral
	var fs factories
	pool := &hostgpu.Pool{}
	out, err := l.LoadAll(context.Background(), paths, fs.new, pool)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, vk.FormatBc1RgbaUnormBlock, out[0].Format())
	require.Equal(t, vk.FormatBc3UnormBlock, out[1].Format())
	require.Equal(t, vk.FormatBc5UnormBlock, out[2].Format())
	for _, res := range out {
		require.True(t, res.IsValid())
		require.Equal(t, vk.ImageLayoutGeneral, res.(*hostgpu.Texture).Layout)
	}
	require.Len(t, fs.made, 3)
	require.Equal(t, 3, pool.Submitted())
}

func TestLoadAllReleasesOnFailure(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.dds")
	require.NoError(t, os.WriteFile(bad, []byte("DDS nope"), 0666))
	paths := []string{
		writeDDS(t, dir, "a.dds", 16, dds.DXT1),
		bad,
		writeDDS(t, dir, "c.dds", 16, dds.DXT1),
	}

	l := NewLoader(quiet())
	l.Threads = 1
	var fs factories
	out, err := l.LoadAll(context.Background(), paths, fs.new, &hostgpu.Pool{})
	require.ErrorIs(t, err, dds.ErrMalformedHeader)
	require.Nil(t, out)
	require.NotEmpty(t, fs.textures())
	for _, tex := range fs.textures() {
		require.False(t, tex.IsValid())
	}
}

func TestLoadAllCanceled(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeDDS(t, dir, "a.dds", 16, dds.DXT1)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var fs factories
	_, err := NewLoader(quiet()).LoadAll(ctx, paths, fs.new, &hostgpu.Pool{})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, fs.made)
}
