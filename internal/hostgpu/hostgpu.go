// Package hostgpu is a host-memory stand-in for a GPU device. Textures keep
// the bytes uploaded to them so tools can inspect what a real device would
// have received.
package hostgpu

import (
	"errors"
	"fmt"
	"sync"

	vk "github.com/goki/vulkan"

	"github.com/erinpentecost/vktex/internal/gpu"
)

// Pool runs recorded commands immediately with a nil command buffer.
type Pool struct {
	mux       sync.Mutex
	submitted int
}

// Execute runs record on the calling goroutine and counts the submission.
func (p *Pool) Execute(record func(cmd vk.CommandBuffer)) error {
	p.mux.Lock()
	defer p.mux.Unlock()
	record(nil)
	p.submitted++
	return nil
}

// Submitted is the number of Execute calls so far.
func (p *Pool) Submitted() int {
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.submitted
}

// Factory creates host textures. It is not safe for concurrent use; give
// each goroutine its own.
type Factory struct {
	width     uint32
	height    uint32
	format    vk.Format
	mipLevels uint32

	// Created lists every texture handed out, destroyed or not.
	Created []*Texture
}

// NewFactory returns a factory set up for single-level textures.
func NewFactory() *Factory {
	return &Factory{mipLevels: 1}
}

func (f *Factory) SetWidth(width uint32)      { f.width = width }
func (f *Factory) SetHeight(height uint32)    { f.height = height }
func (f *Factory) SetFormat(format vk.Format) { f.format = format }
func (f *Factory) SetMipLevels(levels uint32) { f.mipLevels = levels }

// CreateTexture2D makes a texture from the current settings.
func (f *Factory) CreateTexture2D() (gpu.Resource, error) {
	if f.width == 0 || f.height == 0 {
		return nil, fmt.Errorf("create texture: empty extent %dx%d", f.width, f.height)
	}
	if f.mipLevels == 0 {
		return nil, errors.New("create texture: zero mip levels")
	}
	if gpu.BlockBytes(f.format) == 0 {
		return nil, fmt.Errorf("create texture: unsupported format %d", f.format)
	}
	t := &Texture{
		width:     f.width,
		height:    f.height,
		format:    f.format,
		mipLevels: f.mipLevels,
		valid:     true,
	}
	f.Created = append(f.Created, t)
	return t, nil
}

// Texture is a host-side image.
type Texture struct {
	width     uint32
	height    uint32
	format    vk.Format
	mipLevels uint32
	valid     bool

	// Data is a copy of the last upload's source bytes.
	Data      []byte
	Region    vk.BufferImageCopy
	SrcLayout vk.ImageLayout
	Layout    vk.ImageLayout
	Uploads   int
}

func (t *Texture) Width() uint32     { return t.width }
func (t *Texture) Height() uint32    { return t.height }
func (t *Texture) Format() vk.Format { return t.format }
func (t *Texture) MipLevels() uint32 { return t.mipLevels }
func (t *Texture) IsValid() bool     { return t.valid }
func (t *Texture) Destroy()          { t.valid = false; t.Data = nil }

// UploadData checks the region against the image and records the copy.
// It does not check that src covers the whole extent.
func (t *Texture) UploadData(src []byte, region vk.BufferImageCopy, srcLayout, dstLayout vk.ImageLayout, pool gpu.CommandBufferPool) error {
	if !t.valid {
		return errors.New("upload: texture destroyed")
	}
	if pool == nil {
		return errors.New("upload: no command pool")
	}
	sub := region.ImageSubresource
	if sub.MipLevel >= t.mipLevels {
		return fmt.Errorf("upload: mip level %d out of %d", sub.MipLevel, t.mipLevels)
	}
	if sub.BaseArrayLayer != 0 || sub.LayerCount != 1 {
		return fmt.Errorf("upload: layers %d+%d on a single-layer image", sub.BaseArrayLayer, sub.LayerCount)
	}
	ext := region.ImageExtent
	off := region.ImageOffset
	if off.X < 0 || off.Y < 0 ||
		uint32(off.X)+ext.Width > t.width>>sub.MipLevel ||
		uint32(off.Y)+ext.Height > t.height>>sub.MipLevel ||
		ext.Depth != 1 {
		return fmt.Errorf("upload: extent %dx%dx%d at (%d,%d) outside %dx%d image",
			ext.Width, ext.Height, ext.Depth, off.X, off.Y, t.width, t.height)
	}
	if region.BufferOffset > vk.DeviceSize(len(src)) {
		return fmt.Errorf("upload: buffer offset %d past %d source bytes", region.BufferOffset, len(src))
	}

	err := pool.Execute(func(cmd vk.CommandBuffer) {
		t.Data = append([]byte(nil), src[region.BufferOffset:]...)
		t.Region = region
		t.SrcLayout = srcLayout
		t.Layout = dstLayout
		t.Uploads++
	})
	if err != nil {
		return fmt.Errorf("upload: execute: %w", err)
	}
	return nil
}
