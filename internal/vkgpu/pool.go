package vkgpu

import (
	"errors"
	"fmt"
	"sync"

	vk "github.com/goki/vulkan"
)

// CommandPool records one-shot command buffers and submits them to the
// device queue, waiting for each to finish. Execute is safe for concurrent
// use; submissions are serialized.
type CommandPool struct {
	dev  *Device
	pool vk.CommandPool
	mux  sync.Mutex
	done bool
}

func NewCommandPool(dev *Device) (*CommandPool, error) {
	info := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
		QueueFamilyIndex: dev.QueueFamily,
	}
	var pool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(dev.Device, &info, nil, &pool)); err != nil {
		return nil, fmt.Errorf("create command pool: %w", err)
	}
	return &CommandPool{dev: dev, pool: pool}, nil
}

func (p *CommandPool) Execute(record func(cmd vk.CommandBuffer)) error {
	p.mux.Lock()
	defer p.mux.Unlock()
	if p.done {
		return errors.New("command pool destroyed")
	}

	buffers := make([]vk.CommandBuffer, 1)
	err := vk.Error(vk.AllocateCommandBuffers(p.dev.Device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        p.pool,
		CommandBufferCount: 1,
	}, buffers))
	if err != nil {
		return fmt.Errorf("allocate command buffer: %w", err)
	}
	defer vk.FreeCommandBuffers(p.dev.Device, p.pool, 1, buffers)
	cmd := buffers[0]

	err = vk.Error(vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}))
	if err != nil {
		return fmt.Errorf("begin command buffer: %w", err)
	}
	record(cmd)
	if err := vk.Error(vk.EndCommandBuffer(cmd)); err != nil {
		return fmt.Errorf("end command buffer: %w", err)
	}

	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    buffers,
	}
	if err := vk.Error(vk.QueueSubmit(p.dev.Queue, 1, []vk.SubmitInfo{submit}, vk.NullFence)); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := vk.Error(vk.QueueWaitIdle(p.dev.Queue)); err != nil {
		return fmt.Errorf("wait for queue: %w", err)
	}
	return nil
}

func (p *CommandPool) Destroy() {
	p.mux.Lock()
	defer p.mux.Unlock()
	if !p.done {
		vk.DestroyCommandPool(p.dev.Device, p.pool, nil)
		p.done = true
	}
}
