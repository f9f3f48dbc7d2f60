// Package vkgpu implements the gpu interfaces on a Vulkan device.
//
// All entry points take the device from a Device. The caller owns the
// Vulkan instance unless the Device came from Open.
package vkgpu

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"
)

// Device is the subset of a Vulkan context the texture path needs.
type Device struct {
	Instance    vk.Instance
	Physical    vk.PhysicalDevice
	Device      vk.Device
	Queue       vk.Queue
	QueueFamily uint32

	owned bool
}

// Open creates a headless instance and a logical device on the first
// physical device that has a graphics or transfer queue.
func Open(appName string) (*Device, error) {
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return nil, fmt.Errorf("load vulkan: %w", err)
	}
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("init vulkan: %w", err)
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   appName + "\x00",
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "vktex\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.ApiVersion10,
	}
	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &appInfo,
	}, nil, &instance)); err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, fmt.Errorf("init instance: %w", err)
	}

	d, err := openDevice(instance)
	if err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, err
	}
	d.owned = true
	return d, nil
}

func openDevice(instance vk.Instance) (*Device, error) {
	var count uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &count, nil)); err != nil {
		return nil, fmt.Errorf("count physical devices: %w", err)
	}
	if count == 0 {
		return nil, errors.New("no vulkan devices")
	}
	physical := make([]vk.PhysicalDevice, count)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &count, physical)); err != nil {
		return nil, fmt.Errorf("enumerate physical devices: %w", err)
	}

	for _, pd := range physical {
		family, ok := findQueueFamily(pd)
		if !ok {
			continue
		}
		queueInfo := vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
		var device vk.Device
		err := vk.Error(vk.CreateDevice(pd, &vk.DeviceCreateInfo{
			SType:                vk.StructureTypeDeviceCreateInfo,
			QueueCreateInfoCount: 1,
			PQueueCreateInfos:    []vk.DeviceQueueCreateInfo{queueInfo},
			PEnabledFeatures:     []vk.PhysicalDeviceFeatures{{}},
		}, nil, &device))
		if err != nil {
			return nil, fmt.Errorf("create logical device: %w", err)
		}
		var queue vk.Queue
		vk.GetDeviceQueue(device, family, 0, &queue)
		return &Device{
			Instance:    instance,
			Physical:    pd,
			Device:      device,
			Queue:       queue,
			QueueFamily: family,
		}, nil
	}
	return nil, errors.New("no device with a graphics or transfer queue")
}

func findQueueFamily(pd vk.PhysicalDevice) (uint32, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, families)

	want := vk.QueueFlags(vk.QueueGraphicsBit) | vk.QueueFlags(vk.QueueTransferBit)
	for i, family := range families {
		family.Deref()
		if family.QueueFlags&want != 0 && family.QueueCount > 0 {
			return uint32(i), true
		}
	}
	return 0, false
}

// Close waits for the device to go idle and destroys what Open created.
func (d *Device) Close() {
	if !d.owned {
		return
	}
	vk.DeviceWaitIdle(d.Device)
	vk.DestroyDevice(d.Device, nil)
	vk.DestroyInstance(d.Instance, nil)
	d.owned = false
}

// memoryType finds a memory type allowed by typeFilter with all of props.
func (d *Device) memoryType(typeFilter uint32, props vk.MemoryPropertyFlags) (uint32, error) {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(d.Physical, &memProps)
	memProps.Deref()

	for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
		memType := memProps.MemoryTypes[i]
		memType.Deref()
		if typeFilter&(1<<i) == 0 {
			continue
		}
		if memType.PropertyFlags&props != props {
			continue
		}
		return i, nil
	}
	return 0, fmt.Errorf("no memory type for filter %#x and properties %#x", typeFilter, props)
}
