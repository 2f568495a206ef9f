// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"

	"github.com/devblok/korutri/core"
	vk "github.com/vulkan-go/vulkan"
)

// NewCommandBuffers creates a command pool on the device queue family
// and allocates count primary buffers from it. The buffers are reset
// one by one, so each frame slot can rerecord its own.
func NewCommandBuffers(device *Device, count int) (*CommandBuffers, error) {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: device.family,
	}

	var commandPool vk.CommandPool
	if err := check("commands", core.InitError, "vk.CreateCommandPool()", vk.CreateCommandPool(device.device, &cpci, nil, &commandPool)); err != nil {
		return nil, err
	}
	device.tracker.Created(objCommandPool, 1)

	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}

	commandBuffers := make([]vk.CommandBuffer, count)
	if err := check("commands", core.InitError, "vk.AllocateCommandBuffers()", vk.AllocateCommandBuffers(device.device, &cbai, commandBuffers)); err != nil {
		vk.DestroyCommandPool(device.device, commandPool, nil)
		device.tracker.Destroyed(objCommandPool, 1)
		return nil, err
	}

	return &CommandBuffers{
		device:  device,
		pool:    commandPool,
		buffers: commandBuffers,
	}, nil
}

// CommandBuffers is a command pool and the buffers allocated from it.
type CommandBuffers struct {
	device  *Device
	pool    vk.CommandPool
	buffers []vk.CommandBuffer
}

// Get returns the command buffer of a frame slot.
func (c *CommandBuffers) Get(slot int) vk.CommandBuffer {
	return c.buffers[slot]
}

// DrawInfo is what one recording of the triangle needs.
type DrawInfo struct {
	RenderPass  vk.RenderPass
	Framebuffer vk.Framebuffer
	Pipeline    vk.Pipeline
	Extent      core.Extent2D
	ClearColor  [4]float32

	// VertexBuffer is bound at binding 0 when set.
	VertexBuffer *Buffer
}

// Record resets the slot's command buffer and records one render
// pass clearing the image and drawing three vertices.
func (c *CommandBuffers) Record(slot int, draw DrawInfo) error {
	commandBuffer := c.buffers[slot]
	op := fmt.Sprintf("vk.BeginCommandBuffer()[%d]", slot)
	if err := check("commands", core.Internal, "vk.ResetCommandBuffer()", vk.ResetCommandBuffer(commandBuffer, 0)); err != nil {
		return err
	}

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := check("commands", core.Internal, op, vk.BeginCommandBuffer(commandBuffer, &cbbi)); err != nil {
		return err
	}

	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor(draw.ClearColor[:])

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  draw.RenderPass,
		Framebuffer: draw.Framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{
				X: 0, Y: 0,
			},
			Extent: vk.Extent2D{
				Width:  draw.Extent.Width,
				Height: draw.Extent.Height,
			},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(commandBuffer, &rpbi, vk.SubpassContentsInline)
	vk.CmdBindPipeline(commandBuffer, vk.PipelineBindPointGraphics, draw.Pipeline)
	if draw.VertexBuffer != nil {
		vk.CmdBindVertexBuffers(commandBuffer, 0, 1, []vk.Buffer{draw.VertexBuffer.Get()}, []vk.DeviceSize{0})
	}
	vk.CmdDraw(commandBuffer, 3, 1, 0, 0)
	vk.CmdEndRenderPass(commandBuffer)

	return check("commands", core.Internal, fmt.Sprintf("vk.EndCommandBuffer()[%d]", slot), vk.EndCommandBuffer(commandBuffer))
}

// Release frees the buffers and destroys the pool.
func (c *CommandBuffers) Release() {
	if len(c.buffers) > 0 {
		vk.FreeCommandBuffers(c.device.device, c.pool, uint32(len(c.buffers)), c.buffers)
		c.buffers = nil
	}
	vk.DestroyCommandPool(c.device.device, c.pool, nil)
	c.device.tracker.Destroyed(objCommandPool, 1)
}
