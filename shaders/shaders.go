// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package shaders holds the GLSL sources of the renderer. The compiled
// SPIR-V files next to them are what the renderer loads, either from
// this directory, from a kar archive built with cmd/kar, or packed
// into the binary by packr.
package shaders

//go:generate glslangValidator -V triangle.vert -o triangle.vert.spv
//go:generate glslangValidator -V triangle.frag -o triangle.frag.spv
//go:generate glslangValidator -V embedded.vert -o embedded.vert.spv
//go:generate glslangValidator -V embedded.frag -o embedded.frag.spv
