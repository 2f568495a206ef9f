// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/korutri/core"
	vk "github.com/vulkan-go/vulkan"
)

// NewBuffer creates, configures, allocates and binds a new host visible buffer.
func NewBuffer(device *Device, size uint, usage vk.BufferUsageFlagBits, mode vk.SharingMode, ma *MemoryAllocator) (*Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: mode,
	}
	var buffer vk.Buffer
	if err := check("buffer", core.Internal, "vk.CreateBuffer()", vk.CreateBuffer(device.device, &createInfo, nil, &buffer)); err != nil {
		return nil, err
	}
	device.tracker.Created(objBuffer, 1)

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device.device, buffer, &req)
	req.Deref()

	memory, err := ma.Malloc(req, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		vk.DestroyBuffer(device.device, buffer, nil)
		device.tracker.Destroyed(objBuffer, 1)
		return nil, err
	}

	b := &Buffer{
		device: device,
		buffer: buffer,
		size:   size,
		memory: memory,
	}
	if err := check("buffer", core.Internal, "vk.BindBufferMemory()",
		vk.BindBufferMemory(device.device, buffer, memory.Get(), vk.DeviceSize(memory.Offset()))); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// NewVertexBuffer creates a vertex buffer holding data.
func NewVertexBuffer(device *Device, ma *MemoryAllocator, data []byte) (*Buffer, error) {
	b, err := NewBuffer(device, uint(len(data)), vk.BufferUsageVertexBufferBit, vk.SharingModeExclusive, ma)
	if err != nil {
		return nil, err
	}
	if err := b.memory.Upload(data); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// Buffer implements a generic vulkan buffer.
type Buffer struct {
	device *Device
	buffer vk.Buffer
	size   uint

	memory *Memory
}

// Get returns the vulkan Buffer handle.
func (b *Buffer) Get() vk.Buffer {
	return b.buffer
}

// Size is the requested size of the buffer in bytes.
func (b *Buffer) Size() uint {
	return b.size
}

// Release destroys the buffer and memory asociated with it.
func (b *Buffer) Release() {
	vk.DestroyBuffer(b.device.device, b.buffer, nil)
	b.device.tracker.Destroyed(objBuffer, 1)
	b.memory.Release()
}
