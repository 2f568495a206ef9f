// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/korutri/core"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// SelectAndCreateDevice picks the most capable accelerator that can
// render to surface and creates a logical device on it.
func SelectAndCreateDevice(instance *Instance, surface *Surface, cfg core.RendererConfiguration) (*Device, error) {
	accelerators, err := instance.Accelerators()
	if err != nil {
		return nil, err
	}

	infos := make([]core.AcceleratorInfo, len(accelerators))
	for idx := range accelerators {
		addSurfaceSupport(&accelerators[idx], surface)
		infos[idx] = accelerators[idx].Info
	}

	required := cfg.DeviceExtensions
	if len(required) == 0 {
		required = []string{vk.KhrSwapchainExtensionName}
	}
	selected, err := core.SelectAccelerator(infos, required)
	if err != nil {
		return nil, err
	}
	return NewDevice(instance, accelerators[selected], required)
}

// addSurfaceSupport records which queue families can present to the
// surface and how many formats and present modes the surface offers.
func addSurfaceSupport(acc *Accelerator, surface *Surface) {
	for idx := range acc.Info.QueueFamilies {
		var supported vk.Bool32
		qf := &acc.Info.QueueFamilies[idx]
		if vk.GetPhysicalDeviceSurfaceSupport(acc.Device, qf.Index, surface.surface, &supported) == vk.Success {
			qf.Present = supported.B()
		}
	}
	if support, err := querySurfaceSupport(acc.Device, surface.surface); err == nil {
		acc.Info.SurfaceFormats = len(support.formats)
		acc.Info.PresentModes = len(support.presentModes)
	}
}

// NewDevice creates a logical device with one queue from
// the first family that can both draw and present.
func NewDevice(instance *Instance, acc Accelerator, extensions []string) (*Device, error) {
	family, ok := acc.Info.RenderFamily()
	if !ok {
		return nil, core.NewError("device", core.NoSuitableDevice, "", nil)
	}

	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: family.Index,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	safeExtensions := safeStrings(extensions)
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(safeExtensions)),
		PpEnabledExtensionNames: safeExtensions,
	}

	var device vk.Device
	if err := check("device", core.InitError, "vk.CreateDevice()", vk.CreateDevice(acc.Device, &dci, nil, &device)); err != nil {
		return nil, err
	}
	instance.tracker.Created(objDevice, 1)

	var queue vk.Queue
	vk.GetDeviceQueue(device, family.Index, 0, &queue)

	d := &Device{
		physical: acc.Device,
		info:     acc.Info,
		device:   device,
		family:   family.Index,
		queue:    queue,
		tracker:  instance.tracker,
		log:      componentLog("device"),
	}
	d.log.WithFields(log.Fields{
		"name":   acc.Info.Name,
		"type":   acc.Info.Type.String(),
		"family": family.Index,
	}).Info("accelerator selected")
	return d, nil
}

// Device is a logical device and the queue it renders and presents with.
type Device struct {
	physical vk.PhysicalDevice
	info     core.AcceleratorInfo
	device   vk.Device
	family   uint32
	queue    vk.Queue

	tracker *core.Tracker
	log     *log.Entry
}

// Handle returns the native logical device handle.
func (d *Device) Handle() vk.Device {
	return d.device
}

// Info returns the descriptor of the selected accelerator.
func (d *Device) Info() core.AcceleratorInfo {
	return d.info
}

// QueueFamily returns the family index of the device queue.
func (d *Device) QueueFamily() uint32 {
	return d.family
}

// GraphicsQueue returns the queue command buffers are submitted to.
func (d *Device) GraphicsQueue() vk.Queue {
	return d.queue
}

// PresentQueue returns the queue images are presented on,
// it is the same queue as GraphicsQueue.
func (d *Device) PresentQueue() vk.Queue {
	return d.queue
}

// Tracker counts the objects created on this device.
func (d *Device) Tracker() *core.Tracker {
	return d.tracker
}

// WaitIdle blocks until all submitted work has finished.
func (d *Device) WaitIdle() error {
	return check("device", core.DeviceLost, "vk.DeviceWaitIdle()", vk.DeviceWaitIdle(d.device))
}

// Release destroys the logical device.
func (d *Device) Release() {
	vk.DestroyDevice(d.device, nil)
	d.tracker.Destroyed(objDevice, 1)
	d.log.Debug("device destroyed")
}
