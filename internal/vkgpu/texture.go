package vkgpu

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/erinpentecost/vktex/internal/gpu"
)

// Factory creates sampled, optimally tiled 2D images on a Device.
// It is not safe for concurrent use.
type Factory struct {
	dev       *Device
	width     uint32
	height    uint32
	format    vk.Format
	mipLevels uint32
}

func NewFactory(dev *Device) *Factory {
	return &Factory{dev: dev, mipLevels: 1}
}

func (f *Factory) SetWidth(width uint32)      { f.width = width }
func (f *Factory) SetHeight(height uint32)    { f.height = height }
func (f *Factory) SetFormat(format vk.Format) { f.format = format }
func (f *Factory) SetMipLevels(levels uint32) { f.mipLevels = levels }

func (f *Factory) CreateTexture2D() (gpu.Resource, error) {
	if f.width == 0 || f.height == 0 || f.mipLevels == 0 {
		return nil, fmt.Errorf("create texture: bad shape %dx%d with %d levels", f.width, f.height, f.mipLevels)
	}
	dev := f.dev.Device
	t := &Texture{
		dev:       f.dev,
		width:     f.width,
		height:    f.height,
		format:    f.format,
		mipLevels: f.mipLevels,
	}

	info := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  f.width,
			Height: f.height,
			Depth:  1,
		},
		MipLevels:     f.mipLevels,
		ArrayLayers:   1,
		Format:        f.format,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage: vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) |
			vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit) |
			vk.ImageUsageFlags(vk.ImageUsageSampledBit),
		SharingMode: vk.SharingModeExclusive,
		Samples:     vk.SampleCount1Bit,
	}
	if err := vk.Error(vk.CreateImage(dev, &info, nil, &t.image)); err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	t.parts |= hasImage

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev, t.image, &req)
	req.Deref()
	memType, err := f.dev.memoryType(req.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		t.Destroy()
		return nil, err
	}
	err = vk.Error(vk.AllocateMemory(dev, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memType,
	}, nil, &t.memory))
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("allocate image memory: %w", err)
	}
	t.parts |= hasMemory
	if err := vk.Error(vk.BindImageMemory(dev, t.image, t.memory, 0)); err != nil {
		t.Destroy()
		return nil, fmt.Errorf("bind image memory: %w", err)
	}

	view := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    t.image,
		ViewType: vk.ImageViewType2d,
		Format:   f.format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: f.mipLevels,
			LayerCount: 1,
		},
	}
	if err := vk.Error(vk.CreateImageView(dev, &view, nil, &t.view)); err != nil {
		t.Destroy()
		return nil, fmt.Errorf("create image view: %w", err)
	}
	t.parts |= hasView
	return t, nil
}

const (
	hasImage = 1 << iota
	hasMemory
	hasView
)

// Texture owns an image, its memory and a view over all of its levels.
type Texture struct {
	dev       *Device
	image     vk.Image
	memory    vk.DeviceMemory
	view      vk.ImageView
	parts     int
	width     uint32
	height    uint32
	format    vk.Format
	mipLevels uint32
}

func (t *Texture) Width() uint32     { return t.width }
func (t *Texture) Height() uint32    { return t.height }
func (t *Texture) Format() vk.Format { return t.format }
func (t *Texture) IsValid() bool     { return t.parts == hasImage|hasMemory|hasView }

// Image and View expose the handles for descriptor writes.
func (t *Texture) Image() vk.Image    { return t.image }
func (t *Texture) View() vk.ImageView { return t.view }

func (t *Texture) Destroy() {
	dev := t.dev.Device
	if t.parts&hasView != 0 {
		vk.DestroyImageView(dev, t.view, nil)
	}
	if t.parts&hasImage != 0 {
		vk.DestroyImage(dev, t.image, nil)
	}
	if t.parts&hasMemory != 0 {
		vk.FreeMemory(dev, t.memory, nil)
	}
	t.parts = 0
}

// UploadData stages src in host-visible memory and copies it into the image,
// moving it from srcLayout to dstLayout around the copy.
func (t *Texture) UploadData(src []byte, region vk.BufferImageCopy, srcLayout, dstLayout vk.ImageLayout, pool gpu.CommandBufferPool) error {
	if !t.IsValid() {
		return errors.New("upload: texture destroyed")
	}
	if pool == nil {
		return errors.New("upload: no command pool")
	}
	if err := checkRegion(region, t.width, t.height, t.mipLevels, t.format, len(src)); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	staging, err := t.stage(src)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer staging.destroy()

	sub := vk.ImageSubresourceRange{
		AspectMask:     region.ImageSubresource.AspectMask,
		BaseMipLevel:   region.ImageSubresource.MipLevel,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
	err = pool.Execute(func(cmd vk.CommandBuffer) {
		transition(cmd, t.image, sub, srcLayout, vk.ImageLayoutTransferDstOptimal)
		vk.CmdCopyBufferToImage(cmd, staging.buffer, t.image, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
		if dstLayout != vk.ImageLayoutTransferDstOptimal {
			transition(cmd, t.image, sub, vk.ImageLayoutTransferDstOptimal, dstLayout)
		}
	})
	if err != nil {
		return fmt.Errorf("upload: execute: %w", err)
	}
	return nil
}

// checkRegion rejects copies a device would read or write out of bounds.
func checkRegion(region vk.BufferImageCopy, width, height, mipLevels uint32, format vk.Format, srcLen int) error {
	sub := region.ImageSubresource
	if sub.MipLevel >= mipLevels {
		return fmt.Errorf("mip level %d out of %d", sub.MipLevel, mipLevels)
	}
	if sub.BaseArrayLayer != 0 || sub.LayerCount != 1 {
		return fmt.Errorf("layers %d+%d on a single-layer image", sub.BaseArrayLayer, sub.LayerCount)
	}
	ext, off := region.ImageExtent, region.ImageOffset
	if off.X < 0 || off.Y < 0 || off.Z != 0 || ext.Depth != 1 ||
		uint64(off.X)+uint64(ext.Width) > uint64(max(1, width>>sub.MipLevel)) ||
		uint64(off.Y)+uint64(ext.Height) > uint64(max(1, height>>sub.MipLevel)) {
		return fmt.Errorf("extent %dx%dx%d at (%d,%d,%d) outside %dx%d level %d",
			ext.Width, ext.Height, ext.Depth, off.X, off.Y, off.Z, width, height, sub.MipLevel)
	}
	need := gpu.RequiredBytes(format, ext.Width, ext.Height)
	if need == 0 {
		return fmt.Errorf("format %d is not block compressed", format)
	}
	if uint64(region.BufferOffset)+need > uint64(srcLen) {
		return fmt.Errorf("copy reads %d bytes at offset %d from %d source bytes", need, region.BufferOffset, srcLen)
	}
	return nil
}

type stagingBuffer struct {
	dev    vk.Device
	buffer vk.Buffer
	memory vk.DeviceMemory
}

func (s *stagingBuffer) destroy() {
	vk.DestroyBuffer(s.dev, s.buffer, nil)
	vk.FreeMemory(s.dev, s.memory, nil)
}

func (t *Texture) stage(src []byte) (*stagingBuffer, error) {
	dev := t.dev.Device
	size := vk.DeviceSize(len(src))
	s := &stagingBuffer{dev: dev}

	err := vk.Error(vk.CreateBuffer(dev, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &s.buffer))
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev, s.buffer, &req)
	req.Deref()
	memType, err := t.dev.memoryType(req.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		vk.DestroyBuffer(dev, s.buffer, nil)
		return nil, err
	}
	err = vk.Error(vk.AllocateMemory(dev, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memType,
	}, nil, &s.memory))
	if err != nil {
		vk.DestroyBuffer(dev, s.buffer, nil)
		return nil, fmt.Errorf("allocate staging memory: %w", err)
	}
	if err := vk.Error(vk.BindBufferMemory(dev, s.buffer, s.memory, 0)); err != nil {
		s.destroy()
		return nil, fmt.Errorf("bind staging memory: %w", err)
	}

	var p unsafe.Pointer
	if err := vk.Error(vk.MapMemory(dev, s.memory, 0, size, 0, &p)); err != nil {
		s.destroy()
		return nil, fmt.Errorf("map staging memory: %w", err)
	}
	vk.Memcopy(p, src)
	vk.UnmapMemory(dev, s.memory)
	return s, nil
}
