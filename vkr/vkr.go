// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements the vulkan renderer.
//
// Every object type here owns the native handles it creates and
// frees them in Release. Objects borrow their parents (a Swapchain
// borrows the Device and Surface) and must be released before them.
package vkr

import (
	"fmt"
	"strings"

	"github.com/devblok/korutri/core"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// DefaultApplicationInfo application info describes a Vulkan application
var DefaultApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 0, 0),
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	PApplicationName:   "Koru3D\x00",
	PEngineName:        "Koru3D\x00",
}

// Tracked object kinds.
const (
	objInstance      = "vk.Instance"
	objDebugCallback = "vk.DebugReportCallback"
	objSurface       = "vk.Surface"
	objDevice        = "vk.Device"
	objSwapchain     = "vk.Swapchain"
	objImageView     = "vk.ImageView"
	objRenderPass    = "vk.RenderPass"
	objShaderModule  = "vk.ShaderModule"
	objLayout        = "vk.PipelineLayout"
	objPipeline      = "vk.Pipeline"
	objCache         = "vk.PipelineCache"
	objFramebuffer   = "vk.Framebuffer"
	objCommandPool   = "vk.CommandPool"
	objSemaphore     = "vk.Semaphore"
	objFence         = "vk.Fence"
	objBuffer        = "vk.Buffer"
	objMemory        = "vk.DeviceMemory"
)

func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func safeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, safeString(s))
	}
	return safe
}

// resultKind maps a failed call to an error kind, fallback is used
// for results that do not have a meaning of their own.
func resultKind(result vk.Result, fallback core.ErrorKind) core.ErrorKind {
	switch result {
	case vk.ErrorOutOfDate:
		return core.OutOfDate
	case vk.ErrorSurfaceLost:
		return core.SurfaceLost
	case vk.Timeout, vk.NotReady:
		return core.Timeout
	case vk.ErrorDeviceLost:
		return core.DeviceLost
	case vk.ErrorInitializationFailed, vk.ErrorIncompatibleDriver,
		vk.ErrorLayerNotPresent, vk.ErrorExtensionNotPresent:
		return core.InitError
	default:
		return fallback
	}
}

// check turns a result into an error, nil on success.
func check(component string, fallback core.ErrorKind, op string, result vk.Result) error {
	if result == vk.Success {
		return nil
	}
	err := vk.Error(result)
	if err == nil {
		err = fmt.Errorf("vk.Result(%d)", result)
	}
	return core.NewError(component, resultKind(result, fallback), op, err)
}

func componentLog(component string) *log.Entry {
	return log.WithField("component", component)
}
