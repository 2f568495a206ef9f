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

// Framebuffers holds one framebuffer per swapchain image.
type Framebuffers struct {
	device       *Device
	framebuffers []vk.Framebuffer
}

// NewFramebuffers creates a framebuffer for every view of the swapchain.
func NewFramebuffers(device *Device, pipeline *Pipeline, swapchain *Swapchain) (*Framebuffers, error) {
	extent := swapchain.Extent()
	fb := &Framebuffers{device: device}
	for idx, view := range swapchain.Views() {
		attachments := []vk.ImageView{view}
		fci := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      pipeline.RenderPass(),
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           extent.Width,
			Height:          extent.Height,
			Layers:          1,
		}

		var framebuffer vk.Framebuffer
		if err := check("framebuffer", core.Internal, fmt.Sprintf("vk.CreateFramebuffer()[%d]", idx),
			vk.CreateFramebuffer(device.device, &fci, nil, &framebuffer)); err != nil {
			fb.Release()
			return nil, err
		}
		fb.framebuffers = append(fb.framebuffers, framebuffer)
		device.tracker.Created(objFramebuffer, 1)
	}
	return fb, nil
}

// Get returns the framebuffer of the swapchain image idx.
func (f *Framebuffers) Get(idx uint32) vk.Framebuffer {
	return f.framebuffers[idx]
}

// Len is the number of framebuffers.
func (f *Framebuffers) Len() int {
	return len(f.framebuffers)
}

// Release destroys all framebuffers.
func (f *Framebuffers) Release() {
	for _, framebuffer := range f.framebuffers {
		vk.DestroyFramebuffer(f.device.device, framebuffer, nil)
	}
	f.device.tracker.Destroyed(objFramebuffer, len(f.framebuffers))
	f.framebuffers = nil
}
