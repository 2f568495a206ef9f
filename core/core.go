// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core holds the API neutral parts of the renderer:
// configuration, the error taxonomy, accelerator selection and
// swapchain negotiation rules. Nothing in here talks to Vulkan,
// the vkr package does that.
package core

// Extent2D is a width and height in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// Empty reports whether the extent has no area,
// a minimized window reports such an extent.
func (e Extent2D) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

// SurfaceProvider is the windowing collaborator of the renderer.
// It owns the native window and hands out the presentation surface.
type SurfaceProvider interface {
	// InstanceExtensions lists the instance extensions
	// required to create a surface for this window.
	InstanceExtensions() []string

	// CreateSurface creates a presentable surface for the given
	// native instance handle and returns the surface handle.
	// Ownership passes to the caller.
	CreateSurface(instance interface{}) (uintptr, error)

	// Extent returns the current drawable size.
	Extent() Extent2D

	// Resized reports whether the drawable size changed
	// since the last call.
	Resized() bool
}

// Releasable is any object that holds native resources.
type Releasable interface {
	Release()
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

func (s ShaderType) String() string {
	switch s {
	case VertexShaderType:
		return "vert"
	case FragmentShaderType:
		return "frag"
	default:
		return "unknown"
	}
}

// ShaderSet is the pair of compiled SPIR-V blobs a pipeline is built from.
type ShaderSet struct {
	Name     string
	Vertex   []byte
	Fragment []byte
}
