// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

// UndefinedExtent is the current extent value with which a surface
// says the swapchain decides its own size.
const UndefinedExtent = 0xFFFFFFFF

// SurfaceLimits is the part of the surface capabilities
// the swapchain size is negotiated from.
type SurfaceLimits struct {
	Current       Extent2D
	Min           Extent2D
	Max           Extent2D
	MinImageCount uint32
	// MaxImageCount of 0 means no upper limit.
	MaxImageCount uint32
}

// ChooseExtent returns the swapchain extent for a surface. The surface's
// current extent wins unless it is undefined, then desired is clamped
// into the supported range.
func ChooseExtent(limits SurfaceLimits, desired Extent2D) Extent2D {
	if limits.Current.Width != UndefinedExtent {
		return limits.Current
	}
	return Extent2D{
		Width:  clamp(desired.Width, limits.Min.Width, limits.Max.Width),
		Height: clamp(desired.Height, limits.Min.Height, limits.Max.Height),
	}
}

// ChooseImageCount returns the number of swapchain images. A requested
// count of 0 asks for one more than the minimum.
func ChooseImageCount(limits SurfaceLimits, requested uint32) uint32 {
	count := requested
	if count == 0 {
		count = limits.MinImageCount + 1
	}
	if count < limits.MinImageCount {
		count = limits.MinImageCount
	}
	if limits.MaxImageCount > 0 && count > limits.MaxImageCount {
		count = limits.MaxImageCount
	}
	return count
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
