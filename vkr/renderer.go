// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"
	"time"

	"github.com/devblok/korutri/core"
	"github.com/devblok/korutri/model"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// NewRenderer builds everything needed to draw the triangle into the
// surface at extent, with frames.FramesInFlight frame slots.
func NewRenderer(device *Device, surface *Surface, extent core.Extent2D, shaders core.ShaderSet, cfg core.RendererConfiguration, frames core.FrameConfiguration) (r *Renderer, err error) {
	r = &Renderer{
		device:  device,
		surface: surface,
		shaders: shaders,
		cfg:     cfg,
		log:     componentLog("renderer"),
	}
	defer func() {
		if err != nil {
			r.Release()
			r = nil
		}
	}()

	if cfg.VertexSource == core.VertexSourceEmbedded {
		r.layout = model.EmbeddedLayout()
	} else {
		r.layout = model.BufferLayout()
		if r.vertexBuffer, err = NewVertexBuffer(device, NewMemoryAllocator(device), model.Bytes(model.Triangle())); err != nil {
			return
		}
	}

	if r.cache, err = NewPipelineCache(device); err != nil {
		return
	}
	if r.swapchain, err = NewSwapchain(device, surface, extent, nil, cfg); err != nil {
		return
	}
	if r.pipeline, err = r.newPipeline(); err != nil {
		return
	}
	if r.framebuffers, err = NewFramebuffers(device, r.pipeline, r.swapchain); err != nil {
		return
	}
	if r.commands, err = NewCommandBuffers(device, frames.FramesInFlight); err != nil {
		return
	}
	if r.syncs, err = NewSyncSets(device, frames.FramesInFlight); err != nil {
		return
	}
	r.resetImagesInFlight()

	r.log.WithFields(log.Fields{
		"shaders":      shaders.Name,
		"vertexSource": cfg.VertexSource,
		"slots":        frames.FramesInFlight,
	}).Info("renderer ready")
	return r, nil
}

// Renderer draws the triangle, it implements frame.Target.
type Renderer struct {
	device  *Device
	surface *Surface
	shaders core.ShaderSet
	layout  model.Layout
	cfg     core.RendererConfiguration

	vertexBuffer *Buffer
	cache        *PipelineCache
	swapchain    *Swapchain
	pipeline     *Pipeline
	framebuffers *Framebuffers
	commands     *CommandBuffers
	syncs        *SyncSets

	// imagesInFlight is the slot that last drew into
	// each swapchain image, or -1.
	imagesInFlight []int

	log *log.Entry
}

// Swapchain returns the current swapchain.
func (r *Renderer) Swapchain() *Swapchain {
	return r.swapchain
}

func (r *Renderer) newPipeline() (*Pipeline, error) {
	return NewPipeline(r.device, r.cache, PipelineDescription{
		Format:  r.swapchain.Format(),
		Extent:  r.swapchain.Extent(),
		Shaders: r.shaders,
		Layout:  r.layout,
	})
}

func (r *Renderer) resetImagesInFlight() {
	r.imagesInFlight = make([]int, r.swapchain.Len())
	for idx := range r.imagesInFlight {
		r.imagesInFlight[idx] = -1
	}
}

// WaitFence implements frame.Target.
func (r *Renderer) WaitFence(slot int, timeout time.Duration) error {
	return r.syncs.Wait(slot, timeout)
}

// ResetFence implements frame.Target.
func (r *Renderer) ResetFence(slot int) error {
	return r.syncs.Reset(slot)
}

// Acquire implements frame.Target.
func (r *Renderer) Acquire(slot int, timeout time.Duration) (uint32, error) {
	image, err := r.swapchain.Acquire(r.syncs.Get(slot).ImageAvailable, timeout)
	if err != nil {
		return 0, err
	}

	// another slot may still be drawing into the same image
	if owner := r.imagesInFlight[image]; owner >= 0 && owner != slot {
		if err := r.syncs.Wait(owner, timeout); err != nil {
			return 0, err
		}
	}
	r.imagesInFlight[image] = slot
	return image, nil
}

// Record implements frame.Target.
func (r *Renderer) Record(slot int, image uint32) error {
	if int(image) >= r.framebuffers.Len() {
		return core.NewError("renderer", core.Internal, "Record()", fmt.Errorf("image index %d out of range", image))
	}
	return r.commands.Record(slot, DrawInfo{
		RenderPass:   r.pipeline.RenderPass(),
		Framebuffer:  r.framebuffers.Get(image),
		Pipeline:     r.pipeline.Handle(),
		Extent:       r.swapchain.Extent(),
		ClearColor:   r.cfg.ClearColor,
		VertexBuffer: r.vertexBuffer,
	})
}

// Submit implements frame.Target.
func (r *Renderer) Submit(slot int) error {
	set := r.syncs.Get(slot)
	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{set.ImageAvailable},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{r.commands.Get(slot)},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{set.RenderFinished},
	}}
	return check("renderer", core.DeviceLost, "vk.QueueSubmit()", vk.QueueSubmit(r.device.GraphicsQueue(), 1, submit, set.InFlight))
}

// Present implements frame.Target.
func (r *Renderer) Present(slot int, image uint32) error {
	return r.swapchain.Present(r.device.PresentQueue(), image, r.syncs.Get(slot).RenderFinished)
}

// Rebuild implements frame.Target. The old swapchain is retired into the
// new one, the pipeline is rebuilt only when format or extent changed.
func (r *Renderer) Rebuild(extent core.Extent2D) error {
	swapchain, err := NewSwapchain(r.device, r.surface, extent, r.swapchain, r.cfg)
	if err != nil {
		return err
	}

	r.framebuffers.Release()
	r.framebuffers = nil
	r.swapchain.Release()
	r.swapchain = swapchain

	if r.pipeline.Format() != swapchain.Format() || r.pipeline.Extent() != swapchain.Extent() {
		r.pipeline.Release()
		r.pipeline = nil
		if r.pipeline, err = r.newPipeline(); err != nil {
			return err
		}
	}
	if r.framebuffers, err = NewFramebuffers(r.device, r.pipeline, r.swapchain); err != nil {
		return err
	}
	if err := r.syncs.RecreateSemaphores(); err != nil {
		return err
	}
	r.resetImagesInFlight()
	return nil
}

// WaitIdle implements frame.Target.
func (r *Renderer) WaitIdle() error {
	return r.device.WaitIdle()
}

// Release implements frame.Target. Device and surface are borrowed
// and stay alive.
func (r *Renderer) Release() {
	if r.syncs != nil {
		r.syncs.Release()
		r.syncs = nil
	}
	if r.commands != nil {
		r.commands.Release()
		r.commands = nil
	}
	if r.framebuffers != nil {
		r.framebuffers.Release()
		r.framebuffers = nil
	}
	if r.pipeline != nil {
		r.pipeline.Release()
		r.pipeline = nil
	}
	if r.cache != nil {
		r.cache.Release()
		r.cache = nil
	}
	if r.vertexBuffer != nil {
		r.vertexBuffer.Release()
		r.vertexBuffer = nil
	}
	if r.swapchain != nil {
		r.swapchain.Release()
		r.swapchain = nil
	}
	r.log.Debug("renderer released")
}
