// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package frame drives the per frame Acquire, Record, Submit, Present
// cycle over a fixed number of frame slots, and rebuilds size dependent
// state when the presentation surface changes.
package frame

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devblok/korutri/core"
	log "github.com/sirupsen/logrus"
)

// maxRebuilds bounds how many times one frame may be restarted
// because of an out of date swapchain.
const maxRebuilds = 3

// Target is the rendering backend the Executor drives.
// Slots are numbered 0 to FramesInFlight-1 and each slot owns
// one command buffer and one set of synchronization primitives.
type Target interface {
	// WaitFence blocks until the previous submission of
	// the slot has finished executing.
	WaitFence(slot int, timeout time.Duration) error
	ResetFence(slot int) error

	// Acquire gets the next presentable image, it signals
	// the slot's image available semaphore.
	Acquire(slot int, timeout time.Duration) (uint32, error)

	// Record fills the slot's command buffer to draw into the image.
	Record(slot int, image uint32) error

	// Submit sends the slot's command buffer, waiting on image
	// available and signalling render finished and the slot fence.
	Submit(slot int) error

	// Present queues the image once render finished is signalled.
	Present(slot int, image uint32) error

	// Rebuild recreates the swapchain and everything depending on
	// it for the extent. The device is idle when it is called.
	Rebuild(extent core.Extent2D) error

	WaitIdle() error
	core.Releasable
}

// Stats counts what the Executor has done.
type Stats struct {
	Frames    uint64
	Acquires  uint64
	Submits   uint64
	Presents  uint64
	Rebuilds  uint64
	OutOfDate uint64
	Skipped   uint64
}

// Executor runs frames on a Target. It is not safe for concurrent use,
// all calls must come from the thread owning the surface.
type Executor struct {
	target  Target
	surface core.SurfaceProvider
	cfg     core.FrameConfiguration

	current int
	extent  core.Extent2D
	stats   Stats
	closed  bool

	log *log.Entry
}

// New creates an Executor for a target that has been built
// for the surface's current extent.
func New(target Target, surface core.SurfaceProvider, cfg core.FrameConfiguration) (*Executor, error) {
	if cfg.FramesInFlight < 1 {
		return nil, core.NewError("frame", core.InitError, "", fmt.Errorf("invalid frames in flight %d", cfg.FramesInFlight))
	}
	return &Executor{
		target:  target,
		surface: surface,
		cfg:     cfg,
		extent:  surface.Extent(),
		log:     log.WithField("component", "frame"),
	}, nil
}

// Slot returns the slot the next frame will use.
func (e *Executor) Slot() int {
	return e.current
}

// Extent returns the extent the target was last built for.
func (e *Executor) Extent() core.Extent2D {
	return e.extent
}

// Stats returns a snapshot of the counters.
func (e *Executor) Stats() Stats {
	return e.stats
}

// Frame renders one frame. Out of date swapchains are rebuilt and the
// frame is retried on the same slot, every error it returns is fatal.
func (e *Executor) Frame() error {
	if e.closed {
		return core.NewError("frame", core.Internal, "", errors.New("executor is shut down"))
	}

	if e.surface.Resized() {
		extent := e.surface.Extent()
		if extent.Empty() {
			e.extent = extent
		} else if err := e.rebuild(extent); err != nil {
			return err
		}
	}

	if e.extent.Empty() {
		// minimized, nothing can be presented until restored
		extent := e.surface.Extent()
		if extent.Empty() {
			e.stats.Skipped++
			return nil
		}
		if err := e.rebuild(extent); err != nil {
			return err
		}
	}

	slot := e.current
	var (
		image uint32
		err   error
	)
	for attempt := 0; ; attempt++ {
		if err := e.target.WaitFence(slot, e.cfg.FenceTimeout); err != nil {
			return fenceError(err)
		}

		image, err = e.target.Acquire(slot, e.cfg.AcquireTimeout)
		e.stats.Acquires++
		if err == nil {
			break
		}
		if !core.IsKind(err, core.OutOfDate) {
			return err
		}
		e.stats.OutOfDate++
		if attempt == maxRebuilds {
			return core.NewError("frame", core.Internal, "", fmt.Errorf("swapchain still out of date after %d rebuilds: %w", maxRebuilds, err))
		}
		if err := e.rebuild(e.surface.Extent()); err != nil {
			return err
		}
	}

	if err := e.target.ResetFence(slot); err != nil {
		return err
	}
	if err := e.target.Record(slot, image); err != nil {
		return err
	}
	if err := e.target.Submit(slot); err != nil {
		return err
	}
	e.stats.Submits++

	// The slot is in flight from here on, the next
	// frame moves on regardless of the present result.
	e.current = (slot + 1) % e.cfg.FramesInFlight
	e.stats.Frames++

	if err := e.target.Present(slot, image); err != nil {
		if !core.IsKind(err, core.OutOfDate) {
			return err
		}
		e.stats.OutOfDate++
		return e.rebuild(e.surface.Extent())
	}
	e.stats.Presents++
	return nil
}

func (e *Executor) rebuild(extent core.Extent2D) error {
	if err := e.target.WaitIdle(); err != nil {
		return err
	}
	if extent.Empty() {
		e.extent = extent
		return nil
	}

	e.log.WithFields(log.Fields{
		"width":  extent.Width,
		"height": extent.Height,
	}).Debug("rebuilding swapchain")
	if err := e.target.Rebuild(extent); err != nil {
		return err
	}
	e.extent = extent
	e.stats.Rebuilds++
	return nil
}

// fenceError keeps the kind a target already gave the failure.
func fenceError(err error) error {
	var classified *core.Error
	if errors.As(err, &classified) {
		return err
	}
	return core.NewError("frame", core.Internal, "WaitFence", err)
}

// Run renders a frame on every tick until ctx is done or a frame fails,
// then shuts down. It returns the first fatal error, nil otherwise.
func (e *Executor) Run(ctx context.Context, ticks <-chan time.Time, report <-chan time.Time) error {
	var (
		runErr     error
		lastFrames uint64
	)

RenderLoop:
	for {
		select {
		case <-ctx.Done():
			break RenderLoop
		case <-report:
			e.log.WithFields(log.Fields{
				"fps":      e.stats.Frames - lastFrames,
				"rebuilds": e.stats.Rebuilds,
				"skipped":  e.stats.Skipped,
			}).Info("frame statistics")
			lastFrames = e.stats.Frames
		case <-ticks:
			if err := e.Frame(); err != nil {
				runErr = err
				break RenderLoop
			}
		}
	}

	if err := e.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown waits for the device to go idle and releases the target.
// The target is released even if the wait fails. Calling it more
// than once is a no-op.
func (e *Executor) Shutdown() error {
	if e.closed {
		return nil
	}
	e.closed = true

	err := e.target.WaitIdle()
	if err != nil {
		e.log.WithError(err).Error("device did not go idle before release")
	}
	e.target.Release()
	return err
}
