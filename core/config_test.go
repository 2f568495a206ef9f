// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"
	"time"

	"github.com/devblok/korutri/core"
	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/envy"
)

func TestDefaultConfigurationIsValid(t *testing.T) {
	c := qt.New(t)
	cfg := core.DefaultConfiguration()
	c.Assert(cfg.Validate(), qt.IsNil)
	c.Assert(cfg.Frame.FramesInFlight, qt.Equals, 2)
	c.Assert(cfg.Renderer.ScreenWidth, qt.Equals, uint32(800))
	c.Assert(cfg.Renderer.ScreenHeight, qt.Equals, uint32(600))
}

func TestValidate(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		name   string
		mutate func(*core.Configuration)
		err    string
	}{
		{"no slots", func(cfg *core.Configuration) { cfg.Frame.FramesInFlight = 0 }, "frames in flight must be at least 1"},
		{"no timeout", func(cfg *core.Configuration) { cfg.Frame.FenceTimeout = 0 }, "frame timeouts must be positive"},
		{"no width", func(cfg *core.Configuration) { cfg.Renderer.ScreenWidth = 0 }, "invalid screen size 0x600"},
		{"vertex source", func(cfg *core.Configuration) { cfg.Renderer.VertexSource = "uniform" }, `unknown vertex source "uniform"`},
		{"present mode", func(cfg *core.Configuration) { cfg.Renderer.PresentMode = "relaxed" }, `unknown present mode "relaxed"`},
		{"shader name", func(cfg *core.Configuration) { cfg.Renderer.ShaderName = "" }, "shader name is empty"},
		{"fps", func(cfg *core.Configuration) { cfg.Time.FramesPerSecond = -1 }, "frames per second cannot be negative"},
	}
	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			cfg := core.DefaultConfiguration()
			test.mutate(&cfg)
			c.Assert(cfg.Validate(), qt.ErrorMatches, test.err)
		})
	}
}

func TestFromEnvironment(t *testing.T) {
	c := qt.New(t)
	envy.Temp(func() {
		envy.Set(core.EnvDebug, "true")
		envy.Set(core.EnvWidth, "400")
		envy.Set(core.EnvHeight, "300")
		envy.Set(core.EnvFramesInFlight, "3")
		envy.Set(core.EnvFenceTimeout, "250ms")
		envy.Set(core.EnvPresentMode, "FIFO")
		envy.Set(core.EnvShaders, "kar:shaders.kar")

		cfg, err := core.FromEnvironment(core.DefaultConfiguration())
		c.Assert(err, qt.IsNil)
		c.Assert(cfg.Instance.DebugMode, qt.IsTrue)
		c.Assert(cfg.Renderer.ScreenWidth, qt.Equals, uint32(400))
		c.Assert(cfg.Renderer.ScreenHeight, qt.Equals, uint32(300))
		c.Assert(cfg.Frame.FramesInFlight, qt.Equals, 3)
		c.Assert(cfg.Frame.FenceTimeout, qt.Equals, 250*time.Millisecond)
		c.Assert(cfg.Frame.AcquireTimeout, qt.Equals, 5*time.Second)
		c.Assert(cfg.Renderer.PresentMode, qt.Equals, core.PresentModeFifo)
		c.Assert(cfg.Renderer.ShaderSource, qt.Equals, "kar:shaders.kar")
		c.Assert(cfg.Validate(), qt.IsNil)
	})
}

func TestFromEnvironmentBadValue(t *testing.T) {
	c := qt.New(t)
	envy.Temp(func() {
		envy.Set(core.EnvFramesInFlight, "many")
		_, err := core.FromEnvironment(core.DefaultConfiguration())
		c.Assert(err, qt.ErrorMatches, "KORU_FRAMES_IN_FLIGHT: .*")
	})
}
