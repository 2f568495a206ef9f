// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	"github.com/devblok/korutri/core"
)

// Context is the instance, surface and device a Renderer is built on.
type Context struct {
	Instance *Instance
	Surface  *Surface
	Device   *Device
}

// NewContext creates the instance with the extensions the window needs,
// the window surface and a logical device on the best accelerator.
// procAddr may be nil, see NewInstance.
func NewContext(provider core.SurfaceProvider, procAddr unsafe.Pointer, cfg core.Configuration) (*Context, error) {
	instanceCfg := cfg.Instance
	instanceCfg.Extensions = append(append([]string{}, provider.InstanceExtensions()...), cfg.Instance.Extensions...)

	instance, err := NewInstance(DefaultApplicationInfo, procAddr, instanceCfg)
	if err != nil {
		return nil, err
	}
	c := &Context{Instance: instance}

	if c.Surface, err = CreateSurface(instance, provider); err != nil {
		c.Release()
		return nil, err
	}
	if c.Device, err = SelectAndCreateDevice(instance, c.Surface, cfg.Renderer); err != nil {
		c.Release()
		return nil, err
	}
	return c, nil
}

// Tracker counts every object created through the context.
func (c *Context) Tracker() *core.Tracker {
	return c.Instance.Tracker()
}

// Release destroys surface, device and instance in that order.
// Renderers built on the context must be released first.
func (c *Context) Release() {
	if c.Surface != nil {
		c.Surface.Release()
		c.Surface = nil
	}
	if c.Device != nil {
		c.Device.Release()
		c.Device = nil
	}
	if c.Instance != nil {
		c.Instance.Release()
		c.Instance = nil
	}
}
