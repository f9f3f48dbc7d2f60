package dds

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/erinpentecost/vktex/internal/gpu"
)

// Selection is the single mip level that gets copied to the device.
type Selection struct {
	Level  int
	Width  uint32
	Height uint32
	Offset uint64
	Size   uint64
	// Fallback is set when the base level is uploaded because the chain
	// has no usable second-to-last level.
	Fallback bool
	// Required is how many payload bytes the file must hold for the chosen
	// path: the whole chain, or the base level on fallback. A fallback Size
	// may exceed it; Upload copies only the bytes that are present.
	Required uint64
}

// fallbackSize is the base-level footprint used when no chain is usable.
// Unless exact is set it counts blocks across the width in both directions,
// which under-reads bases that are taller than they are wide.
func fallbackSize(width, height, blockSize uint32, exact bool) uint64 {
	across := (uint64(width) + 3) / 4
	down := across
	if exact {
		down = (uint64(height) + 3) / 4
	}
	return across * down * uint64(blockSize)
}

// Select picks the level to upload. Level len(plan)-2 wins when it exists
// and is not degenerate; otherwise the base level is used.
func Select(plan MipPlan, format Format) Selection {
	return selectLevel(plan, format, false)
}

func selectLevel(plan MipPlan, format Format, exactFallback bool) Selection {
	if lvl, ok := plan.Preferred(); ok && !lvl.Degenerate {
		return Selection{
			Level:    lvl.Level,
			Width:    lvl.Width,
			Height:   lvl.Height,
			Offset:   lvl.Offset,
			Size:     lvl.Size,
			Required: plan.TotalSize(),
		}
	}
	var base MipLevel
	if len(plan) > 0 {
		base = plan[0]
	}
	return Selection{
		Level:    0,
		Width:    base.Width,
		Height:   base.Height,
		Offset:   0,
		Size:     fallbackSize(base.Width, base.Height, format.BlockSize, exactFallback),
		Fallback: true,
		Required: base.Size,
	}
}

// CopyRegion describes a full copy into mip 0, layer 0 of the destination.
func (s Selection) CopyRegion() vk.BufferImageCopy {
	return vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{
			Width:  s.Width,
			Height: s.Height,
			Depth:  1,
		},
	}
}

// Upload creates a single-level texture and copies one level of data into
// it. data holds every mip level back to back, as stored after the header.
func (l *Loader) Upload(
	data []byte,
	plan MipPlan,
	format Format,
	factory gpu.Factory,
	pool gpu.CommandBufferPool,
	layout vk.ImageLayout,
) (gpu.Resource, error) {
	if len(plan) == 0 {
		return nil, fmt.Errorf("%w: empty mip plan", ErrResourceCreationFailed)
	}
	base := plan[0]
	factory.SetWidth(base.Width)
	factory.SetHeight(base.Height)
	factory.SetFormat(format.VkFormat)
	factory.SetMipLevels(1)

	for _, lvl := range plan {
		if lvl.Degenerate {
			l.logf("dds: mip level %d is degenerate (%dx%d)\n", lvl.Level, lvl.Width, lvl.Height)
		} else if lvl.Odd() {
			l.logf("dds: mip level %d is not block aligned (%dx%d)\n", lvl.Level, lvl.Width, lvl.Height)
		}
	}

	sel := selectLevel(plan, format, l.ExactFallback)
	if sel.Fallback && len(plan) > 1 {
		l.logf("dds: level %d unusable, uploading base level instead\n", len(plan)-2)
	}
	if uint64(len(data)) < sel.Required {
		return nil, fmt.Errorf("%w: payload is %d bytes, need %d", ErrTruncatedFile, len(data), sel.Required)
	}
	if sel.Width == 0 || sel.Height == 0 {
		return nil, fmt.Errorf("%w: empty extent %dx%d", ErrResourceCreationFailed, sel.Width, sel.Height)
	}

	factory.SetWidth(sel.Width)
	factory.SetHeight(sel.Height)
	tex, err := factory.CreateTexture2D()
	if err != nil {
		return nil, fmt.Errorf("%w: create %dx%d %s texture: %w", ErrResourceCreationFailed, sel.Width, sel.Height, format.Name, err)
	}
	if tex == nil || !tex.IsValid() {
		if tex != nil {
			tex.Destroy()
		}
		return nil, fmt.Errorf("%w: factory returned an invalid %dx%d %s texture", ErrResourceCreationFailed, sel.Width, sel.Height, format.Name)
	}

	// the square fallback footprint can run past the end of a wide base
	end := min(sel.Offset+sel.Size, uint64(len(data)))
	src := data[sel.Offset:end]
	if err := tex.UploadData(src, sel.CopyRegion(), vk.ImageLayoutUndefined, layout, pool); err != nil {
		tex.Destroy()
		return nil, fmt.Errorf("%w: upload level %d: %w", ErrResourceCreationFailed, sel.Level, err)
	}
	return tex, nil
}

// Upload runs Loader.Upload with the default loader.
func Upload(
	data []byte,
	plan MipPlan,
	format Format,
	factory gpu.Factory,
	pool gpu.CommandBufferPool,
	layout vk.ImageLayout,
) (gpu.Resource, error) {
	return defaultLoader.Upload(data, plan, format, factory, pool, layout)
}
