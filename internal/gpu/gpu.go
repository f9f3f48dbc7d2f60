// Package gpu describes the collaborators a texture loader borrows to put
// pixel data on the device: a texture factory, the textures it creates, and
// a command-buffer pool that records and submits transfer work.
package gpu

import (
	vk "github.com/goki/vulkan"
)

// CommandBufferPool runs recorded commands to completion.
// Execute must not return until the submitted work has finished.
type CommandBufferPool interface {
	Execute(record func(cmd vk.CommandBuffer)) error
}

// Factory builds 2D textures. The setters configure the next
// CreateTexture2D call.
type Factory interface {
	SetWidth(width uint32)
	SetHeight(height uint32)
	SetFormat(format vk.Format)
	SetMipLevels(levels uint32)
	CreateTexture2D() (Resource, error)
}

// Resource is a device-resident image.
type Resource interface {
	Width() uint32
	Height() uint32
	Format() vk.Format
	IsValid() bool
	UploadData(src []byte, region vk.BufferImageCopy, srcLayout, dstLayout vk.ImageLayout, pool CommandBufferPool) error
	Destroy()
}

// BlockBytes returns the byte size of one 4x4 block for the block-compressed
// formats this module knows about, or 0.
func BlockBytes(format vk.Format) uint32 {
	switch format {
	case vk.FormatBc1RgbaUnormBlock, vk.FormatBc1RgbUnormBlock:
		return 8
	case vk.FormatBc3UnormBlock, vk.FormatBc5UnormBlock:
		return 16
	default:
		return 0
	}
}

// RequiredBytes is the number of bytes a copy of a width x height extent
// reads for a block-compressed format. Partial blocks count as whole blocks.
func RequiredBytes(format vk.Format, width, height uint32) uint64 {
	bw := (uint64(width) + 3) / 4
	bh := (uint64(height) + 3) / 4
	return bw * bh * uint64(BlockBytes(format))
}

// LayoutName is the lower-case name used on the command line and in reports.
func LayoutName(layout vk.ImageLayout) string {
	for name, l := range layouts {
		if l == layout {
			return name
		}
	}
	return "unknown"
}

// ParseLayout is the inverse of LayoutName.
func ParseLayout(name string) (vk.ImageLayout, bool) {
	l, ok := layouts[name]
	return l, ok
}

var layouts = map[string]vk.ImageLayout{
	"undefined":            vk.ImageLayoutUndefined,
	"general":              vk.ImageLayoutGeneral,
	"shader-read-only":     vk.ImageLayoutShaderReadOnlyOptimal,
	"transfer-src":         vk.ImageLayoutTransferSrcOptimal,
	"transfer-dst":         vk.ImageLayoutTransferDstOptimal,
	"color-attachment":     vk.ImageLayoutColorAttachmentOptimal,
	"depth-stencil-attach": vk.ImageLayoutDepthStencilAttachmentOptimal,
}
