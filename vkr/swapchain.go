// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"time"

	"github.com/devblok/korutri/core"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// NewSwapchain creates a swapchain for surface sized by negotiation with
// the surface. old is retired by the new swapchain if given, the caller
// still has to release it afterwards.
func NewSwapchain(device *Device, surface *Surface, desired core.Extent2D, old *Swapchain, cfg core.RendererConfiguration) (*Swapchain, error) {
	support, err := querySurfaceSupport(device.physical, surface.surface)
	if err != nil {
		return nil, err
	}

	format, err := chooseSurfaceFormat(support.formats)
	if err != nil {
		return nil, err
	}
	presentMode := choosePresentMode(support.presentModes, cfg.PresentMode)
	limits := support.limits()
	extent := core.ChooseExtent(limits, desired)
	imageCount := core.ChooseImageCount(limits, cfg.SwapchainSize)
	compositeAlpha := chooseCompositeAlpha(support.capabilities.SupportedCompositeAlpha)

	oldSwapchain := vk.NullSwapchain
	if old != nil {
		oldSwapchain = old.swapchain
	}

	scci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         surface.surface,
		MinImageCount:   imageCount,
		ImageFormat:     format.Format,
		ImageColorSpace: format.ColorSpace,
		ImageExtent: vk.Extent2D{
			Width:  extent.Width,
			Height: extent.Height,
		},
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.capabilities.CurrentTransform,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		OldSwapchain:     oldSwapchain,
	}

	var swapchain vk.Swapchain
	if err := check("swapchain", core.SurfaceLost, "vk.CreateSwapchain()", vk.CreateSwapchain(device.device, &scci, nil, &swapchain)); err != nil {
		return nil, err
	}
	device.tracker.Created(objSwapchain, 1)

	sc := &Swapchain{
		device:      device,
		swapchain:   swapchain,
		format:      format.Format,
		colorSpace:  format.ColorSpace,
		presentMode: presentMode,
		extent:      extent,
	}

	if err := sc.createImageViews(); err != nil {
		sc.Release()
		return nil, err
	}

	componentLog("swapchain").WithFields(log.Fields{
		"format":      format.Format,
		"presentMode": presentMode,
		"images":      len(sc.images),
		"width":       extent.Width,
		"height":      extent.Height,
	}).Info("swapchain created")
	return sc, nil
}

// Swapchain is the set of presentable images of a surface.
type Swapchain struct {
	device      *Device
	swapchain   vk.Swapchain
	format      vk.Format
	colorSpace  vk.ColorSpace
	presentMode vk.PresentMode
	extent      core.Extent2D

	images []vk.Image
	views  []vk.ImageView
}

// Format returns the image format.
func (s *Swapchain) Format() vk.Format {
	return s.format
}

// Extent returns the image size.
func (s *Swapchain) Extent() core.Extent2D {
	return s.extent
}

// PresentMode returns the negotiated present mode.
func (s *Swapchain) PresentMode() vk.PresentMode {
	return s.presentMode
}

// Len is the number of swapchain images.
func (s *Swapchain) Len() int {
	return len(s.images)
}

// Views returns the image views, in image index order.
func (s *Swapchain) Views() []vk.ImageView {
	return s.views
}

func (s *Swapchain) createImageViews() error {
	var numImages uint32
	if err := check("swapchain", core.SurfaceLost, "vk.GetSwapchainImages()", vk.GetSwapchainImages(s.device.device, s.swapchain, &numImages, nil)); err != nil {
		return err
	}
	s.images = make([]vk.Image, numImages)
	if err := check("swapchain", core.SurfaceLost, "vk.GetSwapchainImages()", vk.GetSwapchainImages(s.device.device, s.swapchain, &numImages, s.images)); err != nil {
		return err
	}
	s.images = s.images[:numImages]

	for _, image := range s.images {
		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   s.format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		var imageView vk.ImageView
		if err := check("swapchain", core.Internal, "vk.CreateImageView()", vk.CreateImageView(s.device.device, &ivci, nil, &imageView)); err != nil {
			return err
		}
		s.views = append(s.views, imageView)
		s.device.tracker.Created(objImageView, 1)
	}
	return nil
}

// Acquire returns the index of the next image, semaphore is signalled
// once the image is ready to be rendered to. A suboptimal swapchain
// still hands out an image.
func (s *Swapchain) Acquire(semaphore vk.Semaphore, timeout time.Duration) (uint32, error) {
	var idx uint32
	result := vk.AcquireNextImage(s.device.device, s.swapchain, uint64(timeout.Nanoseconds()), semaphore, vk.Fence(vk.NullHandle), &idx)
	if result == vk.Suboptimal {
		return idx, nil
	}
	if err := check("swapchain", core.SurfaceLost, "vk.AcquireNextImage()", result); err != nil {
		return 0, err
	}
	return idx, nil
}

// Present queues the image for presentation once wait is signalled.
// A suboptimal result is reported as OutOfDate so the caller rebuilds.
func (s *Swapchain) Present(queue vk.Queue, idx uint32, wait vk.Semaphore) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.swapchain},
		PImageIndices:      []uint32{idx},
	}

	result := vk.QueuePresent(queue, &presentInfo)
	if result == vk.Suboptimal {
		return core.NewError("swapchain", core.OutOfDate, "vk.QueuePresent()", errors.New("swapchain is suboptimal"))
	}
	return check("swapchain", core.SurfaceLost, "vk.QueuePresent()", result)
}

// Release destroys the image views and the swapchain.
func (s *Swapchain) Release() {
	for _, view := range s.views {
		vk.DestroyImageView(s.device.device, view, nil)
	}
	s.device.tracker.Destroyed(objImageView, len(s.views))
	s.views = nil
	s.images = nil

	vk.DestroySwapchain(s.device.device, s.swapchain, nil)
	s.device.tracker.Destroyed(objSwapchain, 1)
}

func chooseSurfaceFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, core.NewError("swapchain", core.FormatUnsupported, "vk.GetPhysicalDeviceSurfaceFormats()", errors.New("surface offers no formats"))
	}
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f, nil
		}
	}
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		// the surface has no preference
		return vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}, nil
	}
	return formats[0], nil
}

var presentModes = map[string]vk.PresentMode{
	core.PresentModeMailbox:   vk.PresentModeMailbox,
	core.PresentModeFifo:      vk.PresentModeFifo,
	core.PresentModeImmediate: vk.PresentModeImmediate,
}

// choosePresentMode returns the preferred mode if offered, FIFO
// otherwise. FIFO is always available.
func choosePresentMode(modes []vk.PresentMode, preferred string) vk.PresentMode {
	want, ok := presentModes[preferred]
	if !ok {
		return vk.PresentModeFifo
	}
	for _, mode := range modes {
		if mode == want {
			return mode
		}
	}
	return vk.PresentModeFifo
}

func chooseCompositeAlpha(supported vk.CompositeAlphaFlags) vk.CompositeAlphaFlagBits {
	compositeAlphaFlags := []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	}
	for _, flag := range compositeAlphaFlags {
		if supported&vk.CompositeAlphaFlags(flag) != 0 {
			return flag
		}
	}
	return vk.CompositeAlphaOpaqueBit
}
