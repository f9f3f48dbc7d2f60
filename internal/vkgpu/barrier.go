package vkgpu

import (
	vk "github.com/goki/vulkan"
)

// layoutAccess gives the access mask and pipeline stage that work on an
// image in layout either produces or waits for.
func layoutAccess(layout vk.ImageLayout) (vk.AccessFlags, vk.PipelineStageFlags) {
	switch layout {
	case vk.ImageLayoutUndefined:
		return 0, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	case vk.ImageLayoutTransferDstOptimal:
		return vk.AccessFlags(vk.AccessTransferWriteBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case vk.ImageLayoutTransferSrcOptimal:
		return vk.AccessFlags(vk.AccessTransferReadBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case vk.ImageLayoutShaderReadOnlyOptimal:
		return vk.AccessFlags(vk.AccessShaderReadBit), vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	case vk.ImageLayoutColorAttachmentOptimal:
		return vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	case vk.ImageLayoutDepthStencilAttachmentOptimal:
		return vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit) | vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
			vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit)
	default:
		return vk.AccessFlags(vk.AccessMemoryReadBit) | vk.AccessFlags(vk.AccessMemoryWriteBit),
			vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
	}
}

// imageBarrier builds the barrier that moves sub from oldLayout to newLayout.
func imageBarrier(image vk.Image, sub vk.ImageSubresourceRange, oldLayout, newLayout vk.ImageLayout) (vk.ImageMemoryBarrier, vk.PipelineStageFlags, vk.PipelineStageFlags) {
	srcAccess, srcStage := layoutAccess(oldLayout)
	dstAccess, dstStage := layoutAccess(newLayout)
	return vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange:    sub,
	}, srcStage, dstStage
}

func transition(cmd vk.CommandBuffer, image vk.Image, sub vk.ImageSubresourceRange, oldLayout, newLayout vk.ImageLayout) {
	barrier, srcStage, dstStage := imageBarrier(image, sub, oldLayout, newLayout)
	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0,
		0, nil,
		0, nil,
		1, []vk.ImageMemoryBarrier{barrier})
}
