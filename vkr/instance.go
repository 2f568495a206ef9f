// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"unsafe"

	"github.com/devblok/korutri/core"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

const (
	validationLayer      = "VK_LAYER_KHRONOS_validation"
	debugReportExtension = "VK_EXT_debug_report"
)

// NewInstance creates a Vulkan instance. procAddr is the loader entry point
// handed out by the window system, nil selects the default loader.
func NewInstance(appInfo *vk.ApplicationInfo, procAddr unsafe.Pointer, cfg core.InstanceConfiguration) (*Instance, error) {
	extensions := safeStrings(cfg.Extensions)
	layers := safeStrings(cfg.Layers)
	if cfg.DebugMode {
		layers = append(layers, safeString(validationLayer))
		extensions = append(extensions, safeString(debugReportExtension))
	}

	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, core.NewError("instance", core.InitError, "vk.SetDefaultGetInstanceProcAddr()", err)
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, core.NewError("instance", core.InitError, "vk.Init()", err)
	}

	/* Create instance */
	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if err := check("instance", core.InitError, "vk.CreateInstance()", vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, err
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, core.NewError("instance", core.InitError, "vk.InitInstance()", err)
	}

	inst := &Instance{
		instance: instance,
		tracker:  &core.Tracker{},
		log:      componentLog("instance"),
	}
	inst.tracker.Created(objInstance, 1)

	if cfg.DebugMode {
		if err := inst.installDebugCallback(); err != nil {
			inst.Release()
			return nil, err
		}
	}

	inst.log.WithFields(log.Fields{
		"extensions": len(extensions),
		"layers":     len(layers),
	}).Debug("instance created")
	return inst, nil
}

// Instance describes a Vulkan API Instance
type Instance struct {
	instance vk.Instance
	debug    vk.DebugReportCallback
	hasDebug bool

	tracker *core.Tracker
	log     *log.Entry
}

// Handle returns the native instance handle.
func (i *Instance) Handle() vk.Instance {
	return i.instance
}

// Tracker counts the objects created from this instance.
func (i *Instance) Tracker() *core.Tracker {
	return i.tracker
}

func (i *Instance) installDebugCallback() error {
	dbgInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit | vk.DebugReportWarningBit | vk.DebugReportErrorBit),
		PfnCallback: debugReport,
	}

	var dbg vk.DebugReportCallback
	if err := check("instance", core.InitError, "vk.CreateDebugReportCallback()", vk.CreateDebugReportCallback(i.instance, &dbgInfo, nil, &dbg)); err != nil {
		return err
	}
	i.debug = dbg
	i.hasDebug = true
	i.tracker.Created(objDebugCallback, 1)
	return nil
}

func debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint,
	messageCode int32, layerPrefix string, message string, userData unsafe.Pointer) vk.Bool32 {
	entry := log.WithFields(log.Fields{
		"component": "validation",
		"layer":     layerPrefix,
		"code":      messageCode,
	})
	if flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0 {
		entry.Error(message)
	} else {
		entry.Warn(message)
	}
	return vk.False
}

// Accelerators returns every physical device with a descriptor
// of its properties. Present support is filled in once a surface
// is known, see SelectAndCreateDevice.
func (i *Instance) Accelerators() ([]Accelerator, error) {
	var deviceCount uint32
	if err := check("instance", core.InitError, "vk.EnumeratePhysicalDevices()", vk.EnumeratePhysicalDevices(i.instance, &deviceCount, nil)); err != nil {
		return nil, err
	}
	if deviceCount == 0 {
		return nil, core.NewError("instance", core.NoAcceleratorFound, "vk.EnumeratePhysicalDevices()", errors.New("no physical devices"))
	}
	devices := make([]vk.PhysicalDevice, deviceCount)
	if err := check("instance", core.InitError, "vk.EnumeratePhysicalDevices()", vk.EnumeratePhysicalDevices(i.instance, &deviceCount, devices)); err != nil {
		return nil, err
	}

	accelerators := make([]Accelerator, 0, deviceCount)
	for _, device := range devices[:deviceCount] {
		accelerators = append(accelerators, Accelerator{
			Device: device,
			Info:   describe(device),
		})
	}
	return accelerators, nil
}

// Release destroys the instance, everything created
// from it must be released before.
func (i *Instance) Release() {
	if i.hasDebug {
		vk.DestroyDebugReportCallback(i.instance, i.debug, nil)
		i.tracker.Destroyed(objDebugCallback, 1)
		i.hasDebug = false
	}
	vk.DestroyInstance(i.instance, nil)
	i.tracker.Destroyed(objInstance, 1)
	i.log.Debug("instance destroyed")
}

// Accelerator is a physical device and its descriptor.
// It is not owned, no release is needed.
type Accelerator struct {
	Device vk.PhysicalDevice
	Info   core.AcceleratorInfo
}

func describe(device vk.PhysicalDevice) core.AcceleratorInfo {
	var info core.AcceleratorInfo

	// Get general device info
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()
	properties.Limits.Deref()
	info.ID = int(properties.DeviceID)
	info.VendorID = int(properties.VendorID)
	info.Name = vk.ToString(properties.DeviceName[:])
	info.DriverVersion = int(properties.DriverVersion)
	info.Type = core.AcceleratorType(properties.DeviceType)
	info.MaxImageDimension2D = properties.Limits.MaxImageDimension2D

	// Get extension info
	var numExtensions uint32
	if vk.EnumerateDeviceExtensionProperties(device, "", &numExtensions, nil) == vk.Success {
		extensions := make([]vk.ExtensionProperties, numExtensions)
		if vk.EnumerateDeviceExtensionProperties(device, "", &numExtensions, extensions) == vk.Success {
			for _, ext := range extensions[:numExtensions] {
				ext.Deref()
				info.Extensions = append(info.Extensions, vk.ToString(ext.ExtensionName[:]))
			}
		}
	}

	// Get memory info
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(device, &memoryProperties)
	memoryProperties.Deref()
	for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
		memoryProperties.MemoryHeaps[iMem].Deref()
		info.Memory += uint64(memoryProperties.MemoryHeaps[iMem].Size)
	}

	// Get queue families
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)
	for idx, qf := range queueFamilies[:queueFamilyCount] {
		qf.Deref()
		info.QueueFamilies = append(info.QueueFamilies, core.QueueFamily{
			Index:    uint32(idx),
			Count:    qf.QueueCount,
			Graphics: qf.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
		})
	}
	return info
}
