// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"

	"github.com/devblok/korutri/core"
	vk "github.com/vulkan-go/vulkan"
)

// NewSurface takes ownership of a surface created by the window system.
func NewSurface(instance *Instance, pSurface uintptr) (*Surface, error) {
	if pSurface == 0 {
		return nil, core.NewError("surface", core.InitError, "", errors.New("window returned no surface"))
	}
	instance.tracker.Created(objSurface, 1)
	return &Surface{
		instance: instance,
		surface:  vk.SurfaceFromPointer(pSurface),
	}, nil
}

// CreateSurface asks the provider for a surface of the instance.
func CreateSurface(instance *Instance, provider core.SurfaceProvider) (*Surface, error) {
	pSurface, err := provider.CreateSurface(instance.Handle())
	if err != nil {
		return nil, core.NewError("surface", core.InitError, "CreateSurface()", err)
	}
	return NewSurface(instance, pSurface)
}

// Surface is a presentation surface owned by the renderer.
type Surface struct {
	instance *Instance
	surface  vk.Surface
}

// Handle returns the native surface handle.
func (s *Surface) Handle() vk.Surface {
	return s.surface
}

// Release destroys the surface, swapchains
// created for it must be released before.
func (s *Surface) Release() {
	vk.DestroySurface(s.instance.instance, s.surface, nil)
	s.instance.tracker.Destroyed(objSurface, 1)
}

type surfaceSupport struct {
	capabilities vk.SurfaceCapabilities
	formats      []vk.SurfaceFormat
	presentModes []vk.PresentMode
}

func querySurfaceSupport(device vk.PhysicalDevice, surface vk.Surface) (surfaceSupport, error) {
	var support surfaceSupport

	if err := check("surface", core.SurfaceLost, "vk.GetPhysicalDeviceSurfaceCapabilities()",
		vk.GetPhysicalDeviceSurfaceCapabilities(device, surface, &support.capabilities)); err != nil {
		return support, err
	}
	support.capabilities.Deref()
	support.capabilities.CurrentExtent.Deref()
	support.capabilities.MinImageExtent.Deref()
	support.capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if err := check("surface", core.SurfaceLost, "vk.GetPhysicalDeviceSurfaceFormats()",
		vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, nil)); err != nil {
		return support, err
	}
	if formatCount > 0 {
		support.formats = make([]vk.SurfaceFormat, formatCount)
		if err := check("surface", core.SurfaceLost, "vk.GetPhysicalDeviceSurfaceFormats()",
			vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, support.formats)); err != nil {
			return support, err
		}
		support.formats = support.formats[:formatCount]
		for idx := range support.formats {
			support.formats[idx].Deref()
		}
	}

	var modeCount uint32
	if err := check("surface", core.SurfaceLost, "vk.GetPhysicalDeviceSurfacePresentModes()",
		vk.GetPhysicalDeviceSurfacePresentModes(device, surface, &modeCount, nil)); err != nil {
		return support, err
	}
	if modeCount > 0 {
		support.presentModes = make([]vk.PresentMode, modeCount)
		if err := check("surface", core.SurfaceLost, "vk.GetPhysicalDeviceSurfacePresentModes()",
			vk.GetPhysicalDeviceSurfacePresentModes(device, surface, &modeCount, support.presentModes)); err != nil {
			return support, err
		}
		support.presentModes = support.presentModes[:modeCount]
	}
	return support, nil
}

func (s surfaceSupport) limits() core.SurfaceLimits {
	caps := s.capabilities
	return core.SurfaceLimits{
		Current:       core.Extent2D{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height},
		Min:           core.Extent2D{Width: caps.MinImageExtent.Width, Height: caps.MinImageExtent.Height},
		Max:           core.Extent2D{Width: caps.MaxImageExtent.Width, Height: caps.MaxImageExtent.Height},
		MinImageCount: caps.MinImageCount,
		MaxImageCount: caps.MaxImageCount,
	}
}
