// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package window provides the window the renderer presents to.
// It is backed by SDL2, building with the glfw tag switches it to GLFW.
// Both have to be driven from the main thread, callers lock it with
// runtime.LockOSThread before calling Init.
package window
