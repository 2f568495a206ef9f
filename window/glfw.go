// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build glfw

package window

import (
	"context"
	"errors"
	"unsafe"

	"github.com/devblok/korutri/core"
	"github.com/vulkan-go/glfw/v3.3/glfw"
)

// Init initialises GLFW and checks that it can find a Vulkan loader.
func Init() error {
	if err := glfw.Init(); err != nil {
		return core.NewError("window", core.InitError, "glfw.Init()", err)
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return core.NewError("window", core.InitError, "glfw.VulkanSupported()", errors.New("no vulkan loader found"))
	}
	return nil
}

// Quit terminates GLFW.
func Quit() {
	glfw.Terminate()
}

// New creates a resizable window without a client API. cancel is
// called when the user asks the window to close.
func New(title string, width, height uint32, cancel context.CancelFunc) (*Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(int(width), int(height), title, nil, nil)
	if err != nil {
		return nil, core.NewError("window", core.InitError, "glfw.CreateWindow()", err)
	}

	w := &Window{
		window: window,
		state:  newState(cancel),
	}
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width int, height int) {
		w.sizeChanged()
	})
	window.SetIconifyCallback(func(_ *glfw.Window, iconified bool) {
		w.setMinimized(iconified)
	})
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.close()
		}
	})
	window.SetCloseCallback(func(_ *glfw.Window) {
		w.close()
	})
	w.last = w.Extent()
	return w, nil
}

// Window is a GLFW window, it implements core.SurfaceProvider.
type Window struct {
	state
	window *glfw.Window
}

// InstanceExtensions implements core.SurfaceProvider.
func (w *Window) InstanceExtensions() []string {
	return w.window.GetRequiredInstanceExtensions()
}

// CreateSurface implements core.SurfaceProvider.
func (w *Window) CreateSurface(instance interface{}) (uintptr, error) {
	return w.window.CreateWindowSurface(instance, nil)
}

// ProcAddr is the loader entry point GLFW found.
func (w *Window) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// Extent implements core.SurfaceProvider. A minimized
// window has an empty extent.
func (w *Window) Extent() core.Extent2D {
	if w.minimized || w.window == nil {
		return core.Extent2D{}
	}
	width, height := w.window.GetFramebufferSize()
	if width < 0 || height < 0 {
		return core.Extent2D{}
	}
	return core.Extent2D{Width: uint32(width), Height: uint32(height)}
}

// Resized implements core.SurfaceProvider. It polls
// events, callbacks run on the calling thread.
func (w *Window) Resized() bool {
	glfw.PollEvents()
	return w.update(w.Extent())
}

// Release destroys the window.
func (w *Window) Release() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
}
