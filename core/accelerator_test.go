// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	"github.com/devblok/korutri/core"
	qt "github.com/frankban/quicktest"
)

var swapchainExtension = []string{"VK_KHR_swapchain\x00"}

func accelerator(name string, typ core.AcceleratorType, dim uint32) core.AcceleratorInfo {
	return core.AcceleratorInfo{
		Name:                name,
		Type:                typ,
		MaxImageDimension2D: dim,
		Extensions:          []string{"VK_KHR_swapchain", "VK_KHR_maintenance1"},
		QueueFamilies: []core.QueueFamily{
			{Index: 0, Count: 1, Graphics: true, Present: true},
		},
		SurfaceFormats: 2,
		PresentModes:   1,
	}
}

func TestScoreRejections(t *testing.T) {
	c := qt.New(t)

	noPresent := accelerator("a", core.DiscreteAccelerator, 16384)
	noPresent.QueueFamilies = []core.QueueFamily{
		{Index: 0, Count: 1, Graphics: true},
		{Index: 1, Count: 1, Present: true},
	}
	noExtension := accelerator("b", core.DiscreteAccelerator, 16384)
	noExtension.Extensions = []string{"VK_KHR_maintenance1"}
	noFormats := accelerator("c", core.DiscreteAccelerator, 16384)
	noFormats.SurfaceFormats = 0
	noModes := accelerator("d", core.DiscreteAccelerator, 16384)
	noModes.PresentModes = 0

	tests := []struct {
		info   core.AcceleratorInfo
		reason string
	}{
		{noPresent, "no queue family supports both graphics and presentation"},
		{noExtension, "missing extension VK_KHR_swapchain"},
		{noFormats, "surface reports no formats"},
		{noModes, "surface reports no present modes"},
	}
	for _, test := range tests {
		score, reason := core.Score(test.info, swapchainExtension)
		c.Check(score < 0, qt.IsTrue, qt.Commentf("%s", test.info.Name))
		c.Check(reason, qt.Equals, test.reason)
	}
}

func TestSelectPrefersDiscrete(t *testing.T) {
	c := qt.New(t)
	infos := []core.AcceleratorInfo{
		accelerator("integrated", core.IntegratedAccelerator, 16384),
		accelerator("discrete", core.DiscreteAccelerator, 8192),
		accelerator("cpu", core.CPUAccelerator, 32768),
	}
	idx, err := core.SelectAccelerator(infos, swapchainExtension)
	c.Assert(err, qt.IsNil)
	c.Assert(infos[idx].Name, qt.Equals, "discrete")
}

func TestSelectTieBreaksOnImageDimension(t *testing.T) {
	c := qt.New(t)
	infos := []core.AcceleratorInfo{
		accelerator("small", core.DiscreteAccelerator, 8192),
		accelerator("big", core.DiscreteAccelerator, 16384),
		accelerator("big-too", core.DiscreteAccelerator, 16384),
	}
	idx, err := core.SelectAccelerator(infos, swapchainExtension)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, 1)
}

func TestSelectSkipsUnsuitable(t *testing.T) {
	c := qt.New(t)
	unsuitable := accelerator("discrete", core.DiscreteAccelerator, 16384)
	unsuitable.QueueFamilies[0].Present = false
	infos := []core.AcceleratorInfo{
		unsuitable,
		accelerator("integrated", core.IntegratedAccelerator, 8192),
	}
	idx, err := core.SelectAccelerator(infos, swapchainExtension)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, 1)
}

func TestSelectNoSuitableDevice(t *testing.T) {
	c := qt.New(t)
	unsuitable := accelerator("gpu0", core.DiscreteAccelerator, 16384)
	unsuitable.Extensions = nil

	_, err := core.SelectAccelerator([]core.AcceleratorInfo{unsuitable}, swapchainExtension)
	c.Assert(core.IsKind(err, core.NoSuitableDevice), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, "device: NoSuitableDevice: gpu0: missing extension VK_KHR_swapchain")

	_, err = core.SelectAccelerator(nil, swapchainExtension)
	c.Assert(core.IsKind(err, core.NoAcceleratorFound), qt.IsTrue)
}

func TestRenderFamily(t *testing.T) {
	c := qt.New(t)
	info := accelerator("a", core.DiscreteAccelerator, 1)
	info.QueueFamilies = []core.QueueFamily{
		{Index: 0, Count: 1, Graphics: true},
		{Index: 1, Count: 0, Graphics: true, Present: true},
		{Index: 2, Count: 4, Graphics: true, Present: true},
	}
	qf, ok := info.RenderFamily()
	c.Assert(ok, qt.IsTrue)
	c.Assert(qf.Index, qt.Equals, uint32(2))
}

func TestAcceleratorTypeText(t *testing.T) {
	c := qt.New(t)
	text, err := core.DiscreteAccelerator.MarshalText()
	c.Assert(err, qt.IsNil)
	c.Assert(string(text), qt.Equals, "discrete")
	c.Assert(core.AcceleratorType(42).String(), qt.Equals, "other")
}
