// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build !glfw

package window

import (
	"context"
	"unsafe"

	"github.com/devblok/korutri/core"
	"github.com/veandco/go-sdl2/sdl"
)

// Init initialises SDL video and events and loads the Vulkan library.
func Init() error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return core.NewError("window", core.InitError, "sdl.Init()", err)
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return core.NewError("window", core.InitError, "sdl.VulkanLoadLibrary()", err)
	}
	return nil
}

// Quit unloads the Vulkan library and shuts SDL down.
func Quit() {
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}

// New creates a resizable Vulkan window. cancel is called when
// the user asks the window to close.
func New(title string, width, height uint32, cancel context.CancelFunc) (*Window, error) {
	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(width),
		int32(height),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, core.NewError("window", core.InitError, "sdl.CreateWindow()", err)
	}

	w := &Window{
		window: window,
		state:  newState(cancel),
	}
	w.last = w.Extent()
	return w, nil
}

// Window is an SDL2 window, it implements core.SurfaceProvider.
type Window struct {
	state
	window *sdl.Window
}

// InstanceExtensions implements core.SurfaceProvider.
func (w *Window) InstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

// CreateSurface implements core.SurfaceProvider.
func (w *Window) CreateSurface(instance interface{}) (uintptr, error) {
	surface, err := w.window.VulkanCreateSurface(instance)
	if err != nil {
		return 0, err
	}
	return uintptr(surface), nil
}

// ProcAddr is the loader entry point of the library SDL loaded.
func (w *Window) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// Extent implements core.SurfaceProvider. A minimized
// window has an empty extent.
func (w *Window) Extent() core.Extent2D {
	if w.minimized || w.window == nil {
		return core.Extent2D{}
	}
	width, height := w.window.VulkanGetDrawableSize()
	if width < 0 || height < 0 {
		return core.Extent2D{}
	}
	return core.Extent2D{Width: uint32(width), Height: uint32(height)}
}

// Resized implements core.SurfaceProvider. It handles all pending
// events, so it has to be called regularly from the SDL thread.
func (w *Window) Resized() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handle(event)
	}
	return w.update(w.Extent())
}

func (w *Window) handle(event sdl.Event) {
	switch et := event.(type) {
	case *sdl.WindowEvent:
		switch et.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			w.sizeChanged()
		case sdl.WINDOWEVENT_MINIMIZED:
			w.setMinimized(true)
		case sdl.WINDOWEVENT_RESTORED:
			w.setMinimized(false)
		}
	case *sdl.KeyboardEvent:
		if et.Keysym.Sym == sdl.K_ESCAPE {
			w.close()
		}
	case *sdl.QuitEvent:
		w.close()
	}
}

// Release destroys the window.
func (w *Window) Release() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
}
