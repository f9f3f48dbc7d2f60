package vkgpu

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/require"
)

func region(mip, w, h uint32) vk.BufferImageCopy {
	return vk.BufferImageCopy{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:   mip,
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{Width: w, Height: h, Depth: 1},
	}
}

func TestCheckRegion(t *testing.T) {
	bc1 := vk.FormatBc1RgbaUnormBlock
	shifted := region(0, 4, 4)
	shifted.ImageOffset = vk.Offset3D{X: 4}
	layered := region(0, 4, 4)
	layered.ImageSubresource.LayerCount = 2
	inside := region(0, 4, 4)
	inside.ImageOffset = vk.Offset3D{X: 4, Y: 4}
	offset := region(0, 4, 4)
	offset.BufferOffset = 8

	tests := []struct {
		name   string
		region vk.BufferImageCopy
		format vk.Format
		srcLen int
		ok     bool
	}{
		{"whole image", region(0, 8, 8), bc1, 32, true},
		{"partial blocks", region(0, 2, 2), bc1, 8, true},
		{"short source", region(0, 8, 8), bc1, 31, false},
		{"mip out of range", region(1, 4, 4), bc1, 8, false},
		{"too wide", region(0, 12, 8), bc1, 64, false},
		{"offset past edge", shifted, bc1, 8, false},
		{"offset inside", inside, bc1, 8, true},
		{"layers", layered, bc1, 8, false},
		{"buffer offset", offset, bc1, 15, false},
		{"buffer offset fits", offset, bc1, 16, true},
		{"uncompressed", region(0, 8, 8), vk.FormatR8g8b8a8Unorm, 256, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkRegion(tt.region, 8, 8, 1, tt.format, tt.srcLen)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestImageBarrier(t *testing.T) {
	var img vk.Image
	sub := vk.ImageSubresourceRange{LevelCount: 1, LayerCount: 1}

	b, src, dst := imageBarrier(img, sub, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	require.Equal(t, vk.AccessFlags(0), b.SrcAccessMask)
	require.Equal(t, vk.AccessFlags(vk.AccessTransferWriteBit), b.DstAccessMask)
	require.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), src)
	require.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTransferBit), dst)
	require.Equal(t, vk.ImageLayoutTransferDstOptimal, b.NewLayout)

	b, src, dst = imageBarrier(img, sub, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	require.Equal(t, vk.AccessFlags(vk.AccessTransferWriteBit), b.SrcAccessMask)
	require.Equal(t, vk.AccessFlags(vk.AccessShaderReadBit), b.DstAccessMask)
	require.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTransferBit), src)
	require.Equal(t, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit), dst)
	require.Equal(t, uint32(vk.QueueFamilyIgnored), b.SrcQueueFamilyIndex)
}

func TestLayoutAccessGeneral(t *testing.T) {
	access, stage := layoutAccess(vk.ImageLayoutGeneral)
	require.NotZero(t, access&vk.AccessFlags(vk.AccessMemoryWriteBit))
	require.Equal(t, vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit), stage)
}
