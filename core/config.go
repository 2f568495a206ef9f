// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gobuffalo/envy"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Instance InstanceConfiguration
	Renderer RendererConfiguration
	Frame    FrameConfiguration
	Time     TimeConfiguration
}

// InstanceConfiguration configures the creation of the API instance.
type InstanceConfiguration struct {
	// DebugMode enables validation layers and routes
	// their reports into the log.
	DebugMode  bool
	Extensions []string
	Layers     []string
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// ReportInterval is how often frame statistics are logged,
	// 0 disables reporting.
	ReportInterval time.Duration
}

// Vertex sources understood by the renderer.
const (
	// VertexSourceBuffer uploads the triangle into a vertex buffer.
	VertexSourceBuffer = "buffer"
	// VertexSourceEmbedded leaves the vertices in the vertex shader.
	VertexSourceEmbedded = "embedded"
)

// Present mode preferences.
const (
	PresentModeMailbox   = "mailbox"
	PresentModeFifo      = "fifo"
	PresentModeImmediate = "immediate"
)

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	// SwapchainSize is the requested number of swapchain images,
	// 0 requests one more than the surface minimum.
	SwapchainSize    uint32
	DeviceExtensions []string

	ScreenWidth  uint32
	ScreenHeight uint32

	// ShaderSource selects where compiled shaders are read from:
	// "dir:<path>", "kar:<file>" or "box".
	ShaderSource string
	ShaderName   string
	VertexSource string

	// PresentMode is the preferred present mode, FIFO
	// is used when the preferred one is not offered.
	PresentMode string

	ClearColor [4]float32
}

// FrameConfiguration configures the frame executor.
type FrameConfiguration struct {
	FramesInFlight int
	FenceTimeout   time.Duration
	AcquireTimeout time.Duration
}

// DefaultConfiguration returns the configuration the renderer
// runs with when nothing is overridden.
func DefaultConfiguration() Configuration {
	return Configuration{
		Instance: InstanceConfiguration{
			Extensions: []string{},
			Layers:     []string{},
		},
		Renderer: RendererConfiguration{
			ScreenWidth:  800,
			ScreenHeight: 600,
			DeviceExtensions: []string{
				"VK_KHR_swapchain",
			},
			ShaderSource: "dir:./shaders",
			ShaderName:   "triangle",
			VertexSource: VertexSourceBuffer,
			PresentMode:  PresentModeMailbox,
			ClearColor:   [4]float32{0.1, 0.1, 0.1, 1.0},
		},
		Frame: FrameConfiguration{
			FramesInFlight: 2,
			FenceTimeout:   5 * time.Second,
			AcquireTimeout: 5 * time.Second,
		},
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			ReportInterval:  time.Second,
		},
	}
}

// Environment variables read by FromEnvironment.
const (
	EnvDebug          = "KORU_DEBUG"
	EnvWidth          = "KORU_WIDTH"
	EnvHeight         = "KORU_HEIGHT"
	EnvSwapchainSize  = "KORU_SWAPCHAIN_SIZE"
	EnvShaders        = "KORU_SHADERS"
	EnvShaderName     = "KORU_SHADER_NAME"
	EnvVertexSource   = "KORU_VERTEX_SOURCE"
	EnvPresentMode    = "KORU_PRESENT_MODE"
	EnvFramesInFlight = "KORU_FRAMES_IN_FLIGHT"
	EnvFenceTimeout   = "KORU_FENCE_TIMEOUT"
	EnvAcquireTimeout = "KORU_ACQUIRE_TIMEOUT"
	EnvFramesPerSec   = "KORU_FPS"
)

// FromEnvironment overlays KORU_* environment variables
// (and a .env file, if present) on top of cfg.
func FromEnvironment(cfg Configuration) (Configuration, error) {
	var err error
	if cfg.Instance.DebugMode, err = envBool(EnvDebug, cfg.Instance.DebugMode); err != nil {
		return cfg, err
	}
	if cfg.Renderer.ScreenWidth, err = envUint32(EnvWidth, cfg.Renderer.ScreenWidth); err != nil {
		return cfg, err
	}
	if cfg.Renderer.ScreenHeight, err = envUint32(EnvHeight, cfg.Renderer.ScreenHeight); err != nil {
		return cfg, err
	}
	if cfg.Renderer.SwapchainSize, err = envUint32(EnvSwapchainSize, cfg.Renderer.SwapchainSize); err != nil {
		return cfg, err
	}
	cfg.Renderer.ShaderSource = envy.Get(EnvShaders, cfg.Renderer.ShaderSource)
	cfg.Renderer.ShaderName = envy.Get(EnvShaderName, cfg.Renderer.ShaderName)
	cfg.Renderer.VertexSource = strings.ToLower(envy.Get(EnvVertexSource, cfg.Renderer.VertexSource))
	cfg.Renderer.PresentMode = strings.ToLower(envy.Get(EnvPresentMode, cfg.Renderer.PresentMode))

	frames, err := envUint32(EnvFramesInFlight, uint32(cfg.Frame.FramesInFlight))
	if err != nil {
		return cfg, err
	}
	cfg.Frame.FramesInFlight = int(frames)
	if cfg.Frame.FenceTimeout, err = envDuration(EnvFenceTimeout, cfg.Frame.FenceTimeout); err != nil {
		return cfg, err
	}
	if cfg.Frame.AcquireTimeout, err = envDuration(EnvAcquireTimeout, cfg.Frame.AcquireTimeout); err != nil {
		return cfg, err
	}

	fps, err := envUint32(EnvFramesPerSec, uint32(cfg.Time.FramesPerSecond))
	if err != nil {
		return cfg, err
	}
	cfg.Time.FramesPerSecond = int(fps)
	return cfg, nil
}

// Validate checks that the configuration can be run with.
func (c Configuration) Validate() error {
	if c.Frame.FramesInFlight < 1 {
		return errors.New("frames in flight must be at least 1")
	}
	if c.Frame.FenceTimeout <= 0 || c.Frame.AcquireTimeout <= 0 {
		return errors.New("frame timeouts must be positive")
	}
	if c.Renderer.ScreenWidth == 0 || c.Renderer.ScreenHeight == 0 {
		return fmt.Errorf("invalid screen size %dx%d", c.Renderer.ScreenWidth, c.Renderer.ScreenHeight)
	}
	switch c.Renderer.VertexSource {
	case VertexSourceBuffer, VertexSourceEmbedded:
	default:
		return fmt.Errorf("unknown vertex source %q", c.Renderer.VertexSource)
	}
	switch c.Renderer.PresentMode {
	case PresentModeMailbox, PresentModeFifo, PresentModeImmediate:
	default:
		return fmt.Errorf("unknown present mode %q", c.Renderer.PresentMode)
	}
	if c.Renderer.ShaderName == "" {
		return errors.New("shader name is empty")
	}
	if c.Time.FramesPerSecond < 0 {
		return errors.New("frames per second cannot be negative")
	}
	return nil
}

func envBool(key string, def bool) (bool, error) {
	v := envy.Get(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envUint32(key string, def uint32) (uint32, error) {
	v := envy.Get(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return uint32(n), nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := envy.Get(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
