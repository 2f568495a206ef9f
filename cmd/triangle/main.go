// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/devblok/korutri/assets"
	"github.com/devblok/korutri/core"
	"github.com/devblok/korutri/core/frame"
	"github.com/devblok/korutri/vkr"
	"github.com/devblok/korutri/window"
	log "github.com/sirupsen/logrus"
)

func init() {
	runtime.LockOSThread()
}

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	verbose      = flag.Bool("v", false, "Verbose logging")
	frames       = flag.Int("frames", 0, "Exit after this many frame ticks, 0 runs until closed")
	embedded     = flag.Bool("embedded", false, "Draw with the shaders carrying their own vertices")
)

const embeddedShaderName = "embedded"

func main() {
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			panic(err)
		}
		if err := trace.Start(f); err != nil {
			panic(err)
		}
		defer trace.Stop()
	}

	code := run()

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			panic(err)
		}
	}

	if code != 0 {
		pprof.StopCPUProfile()
		trace.Stop()
		os.Exit(code)
	}
}

func run() int {
	cfg, err := configure()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %s\n", err)
		return 1
	}
	if err := render(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed with %s: %s\n", core.ComponentOf(err), core.KindOf(err), err)
		return 1
	}
	return 0
}

func configure() (core.Configuration, error) {
	cfg, err := core.FromEnvironment(core.DefaultConfiguration())
	if err != nil {
		return cfg, err
	}
	if *debug {
		cfg.Instance.DebugMode = true
	}
	if *embedded {
		cfg.Renderer.VertexSource = core.VertexSourceEmbedded
		cfg.Renderer.ShaderName = embeddedShaderName
	}
	return cfg, cfg.Validate()
}

func loadShaders(cfg core.RendererConfiguration) (core.ShaderSet, error) {
	src, err := assets.Open(cfg.ShaderSource)
	if err != nil {
		return core.ShaderSet{}, core.NewError("shader", core.ShaderCompileError, "open "+cfg.ShaderSource, err)
	}
	if closer, ok := src.(io.Closer); ok {
		defer closer.Close()
	}
	return assets.Load(src, cfg.ShaderName)
}

// release frees r and notes it in the debug log.
func release(component string, r core.Releasable) {
	r.Release()
	log.WithField("component", component).Debug("released")
}

func logSwapchain(sc *vkr.Swapchain) {
	extent := sc.Extent()
	log.WithFields(log.Fields{
		"component":   "swapchain",
		"format":      sc.Format(),
		"presentMode": sc.PresentMode(),
		"images":      sc.Len(),
		"width":       extent.Width,
		"height":      extent.Height,
	}).Info("swapchain ready")
}

// render bootstraps window, context and renderer, runs frames until
// the window closes, and tears everything down in reverse order.
func render(cfg core.Configuration) error {
	shaders, err := loadShaders(cfg.Renderer)
	if err != nil {
		return err
	}

	if err := window.Init(); err != nil {
		return err
	}
	defer window.Quit()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	win, err := window.New("Koru3D", cfg.Renderer.ScreenWidth, cfg.Renderer.ScreenHeight, cancel)
	if err != nil {
		return err
	}
	defer release("window", win)

	vkctx, err := vkr.NewContext(win, win.ProcAddr(), cfg)
	if err != nil {
		return err
	}
	tracker := vkctx.Tracker()
	defer func() {
		release("vulkan", vkctx)
		entry := log.WithFields(log.Fields{
			"component": "main",
			"live":      tracker.Total(),
		})
		if live := tracker.Live(); len(live) > 0 {
			entry.WithField("objects", live).Error("vulkan objects leaked")
		} else {
			entry.Info("all vulkan objects released")
		}
	}()

	renderer, err := vkr.NewRenderer(vkctx.Device, vkctx.Surface, win.Extent(), shaders, cfg.Renderer, cfg.Frame)
	if err != nil {
		return err
	}

	logSwapchain(renderer.Swapchain())

	executor, err := frame.New(renderer, win, cfg.Frame)
	if err != nil {
		release("renderer", renderer)
		return err
	}

	timeService := core.NewTime(cfg.Time)
	defer timeService.Stop()

	ticks := timeService.FpsTicker().C
	if *frames > 0 {
		ticks = limitTicks(ctx, ticks, *frames, cancel)
	}

	runErr := executor.Run(ctx, ticks, timeService.Report())
	stats := executor.Stats()
	log.WithFields(log.Fields{
		"component": "main",
		"frames":    stats.Frames,
		"rebuilds":  stats.Rebuilds,
		"skipped":   stats.Skipped,
	}).Info("render loop exited")
	return runErr
}

// limitTicks forwards n ticks and cancels the run afterwards.
func limitTicks(ctx context.Context, ticks <-chan time.Time, n int, cancel context.CancelFunc) <-chan time.Time {
	out := make(chan time.Time)
	go func() {
		defer cancel()
		for idx := 0; idx < n; idx++ {
			select {
			case <-ctx.Done():
				return
			case t := <-ticks:
				select {
				case out <- t:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
