// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/devblok/korutri/core"
	vk "github.com/vulkan-go/vulkan"
)

// Memory defines a usable memory region.
type Memory struct {
	mapped      bool
	len, offset uint
	device      *Device
	memory      vk.DeviceMemory
}

// Len returns the length of assigned memory.
func (m *Memory) Len() uint {
	return m.len
}

// Offset returns the start location of assigned memory.
func (m *Memory) Offset() uint {
	return m.offset
}

// Get returns the vulkan memory handle.
func (m *Memory) Get() vk.DeviceMemory {
	return m.memory
}

// Map maps the entire available memory region and
// returns a pointer to the mapped area.
func (m *Memory) Map() (unsafe.Pointer, error) {
	var memMapped unsafe.Pointer
	if err := check("memory", core.Internal, "vk.MapMemory()",
		vk.MapMemory(m.device.device, m.memory, vk.DeviceSize(m.offset), vk.DeviceSize(m.len), 0, &memMapped)); err != nil {
		return nil, err
	}
	m.mapped = true
	return memMapped, nil
}

// Unmap removes the memory mapping if it was mapped.
func (m *Memory) Unmap() {
	if m.mapped {
		vk.UnmapMemory(m.device.device, m.memory)
		m.mapped = false
	}
}

// Upload copies data to the start of the region.
// The memory has to be host visible and coherent.
func (m *Memory) Upload(data []byte) error {
	if uint(len(data)) > m.len {
		return core.NewError("memory", core.Internal, "Upload()", fmt.Errorf("%d bytes do not fit into %d", len(data), m.len))
	}
	ptr, err := m.Map()
	if err != nil {
		return err
	}
	vk.Memcopy(ptr, data)
	m.Unmap()
	return nil
}

// Release frees memory after unmapping it if previously mapped.
func (m *Memory) Release() {
	m.Unmap()
	vk.FreeMemory(m.device.device, m.memory, nil)
	m.device.tracker.Destroyed(objMemory, 1)
}

// NewMemoryAllocator creates a new memory allocator. Allocates for the logical device,
// reads memory properties of the physical device to influence allocation.
func NewMemoryAllocator(device *Device) *MemoryAllocator {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(device.physical, &memProperties)
	memProperties.Deref()

	types := make([]vk.MemoryPropertyFlags, 0, memProperties.MemoryTypeCount)
	for idx := uint32(0); idx < memProperties.MemoryTypeCount; idx++ {
		memProperties.MemoryTypes[idx].Deref()
		types = append(types, memProperties.MemoryTypes[idx].PropertyFlags)
	}

	return &MemoryAllocator{
		device: device,
		types:  types,
	}
}

// MemoryAllocator is responsible returning usable
// memory for any resources that may need it.
type MemoryAllocator struct {
	device *Device
	types  []vk.MemoryPropertyFlags
}

// Malloc returns a usable memory chunk ready for use.
func (ma *MemoryAllocator) Malloc(req vk.MemoryRequirements, prop vk.MemoryPropertyFlagBits) (*Memory, error) {
	memTypeIdx, err := findMemoryType(ma.types, req.MemoryTypeBits, vk.MemoryPropertyFlags(prop))
	if err != nil {
		return nil, core.NewError("memory", core.Internal, "Malloc()", err)
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memTypeIdx,
	}

	var memory vk.DeviceMemory
	if err := check("memory", core.Internal, "vk.AllocateMemory()", vk.AllocateMemory(ma.device.device, &mai, nil, &memory)); err != nil {
		return nil, err
	}
	ma.device.tracker.Created(objMemory, 1)

	return &Memory{
		offset: 0,
		len:    uint(req.Size),
		device: ma.device,
		memory: memory,
	}, nil
}

// findMemoryType returns the first type allowed by filter
// that has every property in prop.
func findMemoryType(types []vk.MemoryPropertyFlags, filter uint32, prop vk.MemoryPropertyFlags) (uint32, error) {
	for idx, flags := range types {
		if filter&(1<<uint(idx)) != 0 && flags&prop == prop {
			return uint32(idx), nil
		}
	}
	return 0, errors.New("suitable memory type not found")
}
