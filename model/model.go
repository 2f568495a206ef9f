// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model defines the geometry the renderer draws
// and how it is laid out for the vertex input stage.
package model

import (
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// Vertex is a model vertex in clip space
type Vertex struct {
	Pos   glm.Vec2
	Color glm.Vec3
}

// Triangle returns the three vertices of the triangle, listed
// clockwise as seen on screen with red, green and blue corners.
func Triangle() []Vertex {
	return []Vertex{
		{Pos: glm.Vec2{0.0, -0.5}, Color: glm.Vec3{1.0, 0.0, 0.0}},
		{Pos: glm.Vec2{0.5, 0.5}, Color: glm.Vec3{0.0, 1.0, 0.0}},
		{Pos: glm.Vec2{-0.5, 0.5}, Color: glm.Vec3{0.0, 0.0, 1.0}},
	}
}

// Bytes returns the raw memory of vertices, ready for upload.
func Bytes(vertices []Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	size := len(vertices) * int(unsafe.Sizeof(Vertex{}))
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), size)
}

// Layout describes the vertex input state of a pipeline.
type Layout struct {
	Bindings   []vk.VertexInputBindingDescription
	Attributes []vk.VertexInputAttributeDescription
}

// Empty reports whether the layout has no vertex input at all.
func (l Layout) Empty() bool {
	return len(l.Bindings) == 0
}

// BufferLayout is the layout of Vertex read from binding 0.
func BufferLayout() Layout {
	return Layout{
		Bindings:   VertexBindingDescriptions(),
		Attributes: VertexAttributeDescriptions(),
	}
}

// EmbeddedLayout is the layout for shaders that
// carry the vertices themselves.
func EmbeddedLayout() Layout {
	return Layout{}
}

// VertexBindingDescriptions return Vulkan Vertex descriptors
func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vk.VertexInputRateVertex,
	}}
}

// VertexAttributeDescriptions return Vulkan attribute descriptors
func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
	}
}
