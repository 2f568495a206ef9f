// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package frame_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/devblok/korutri/core"
	"github.com/devblok/korutri/core/frame"
	qt "github.com/frankban/quicktest"
)

type fenceState int

const (
	signaled fenceState = iota
	unsignaled
	pending
)

// fakeTarget simulates a GPU that finishes a submission
// as soon as its fence is waited on.
type fakeTarget struct {
	t      testing.TB
	images uint32
	next   uint32

	fences      []fenceState
	maxInFlight int
	released    bool

	acquireErrs []error
	presentErrs []error
	waitErr     error

	calls    []string
	rebuilds []core.Extent2D
}

func newFakeTarget(t testing.TB, slots int) *fakeTarget {
	return &fakeTarget{
		t:      t,
		images: 3,
		fences: make([]fenceState, slots),
	}
}

func (f *fakeTarget) record(format string, args ...interface{}) {
	if f.released {
		f.t.Errorf("%s called after release", fmt.Sprintf(format, args...))
	}
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeTarget) inFlight() int {
	var n int
	for _, state := range f.fences {
		if state == pending {
			n++
		}
	}
	return n
}

func (f *fakeTarget) WaitFence(slot int, timeout time.Duration) error {
	f.record("wait %d", slot)
	if f.waitErr != nil {
		return f.waitErr
	}
	switch f.fences[slot] {
	case unsignaled:
		return core.NewError("sync", core.Timeout, "vk.WaitForFences()", errors.New("fence never submitted"))
	case pending:
		f.fences[slot] = signaled
	}
	return nil
}

func (f *fakeTarget) ResetFence(slot int) error {
	f.record("reset %d", slot)
	if f.fences[slot] != signaled {
		f.t.Errorf("reset of slot %d that is not signaled", slot)
	}
	f.fences[slot] = unsignaled
	return nil
}

func (f *fakeTarget) Acquire(slot int, timeout time.Duration) (uint32, error) {
	f.record("acquire %d", slot)
	if len(f.acquireErrs) > 0 {
		err := f.acquireErrs[0]
		f.acquireErrs = f.acquireErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	img := f.next
	f.next = (f.next + 1) % f.images
	return img, nil
}

func (f *fakeTarget) Record(slot int, image uint32) error {
	f.record("record %d %d", slot, image)
	if f.fences[slot] == pending {
		f.t.Errorf("recording slot %d while it is in flight", slot)
	}
	return nil
}

func (f *fakeTarget) Submit(slot int) error {
	f.record("submit %d", slot)
	f.fences[slot] = pending
	if n := f.inFlight(); n > f.maxInFlight {
		f.maxInFlight = n
	}
	return nil
}

func (f *fakeTarget) Present(slot int, image uint32) error {
	f.record("present %d %d", slot, image)
	if len(f.presentErrs) > 0 {
		err := f.presentErrs[0]
		f.presentErrs = f.presentErrs[1:]
		return err
	}
	return nil
}

func (f *fakeTarget) Rebuild(extent core.Extent2D) error {
	f.record("rebuild %dx%d", extent.Width, extent.Height)
	if f.inFlight() != 0 {
		f.t.Errorf("rebuild with %d submissions in flight", f.inFlight())
	}
	f.rebuilds = append(f.rebuilds, extent)
	return nil
}

func (f *fakeTarget) WaitIdle() error {
	f.record("idle")
	for idx, state := range f.fences {
		if state == pending {
			f.fences[idx] = signaled
		}
	}
	return nil
}

func (f *fakeTarget) Release() {
	f.record("release")
	f.released = true
}

func (f *fakeTarget) count(prefix string) int {
	var n int
	for _, call := range f.calls {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

type fakeSurface struct {
	extent  core.Extent2D
	resized bool
}

func (s *fakeSurface) InstanceExtensions() []string { return nil }

func (s *fakeSurface) CreateSurface(interface{}) (uintptr, error) { return 0, nil }

func (s *fakeSurface) Extent() core.Extent2D { return s.extent }

func (s *fakeSurface) Resized() bool {
	r := s.resized
	s.resized = false
	return r
}

func (s *fakeSurface) resize(width, height uint32) {
	s.extent = core.Extent2D{Width: width, Height: height}
	s.resized = true
}

func newExecutor(c *qt.C, slots int) (*frame.Executor, *fakeTarget, *fakeSurface) {
	target := newFakeTarget(c.TB, slots)
	surface := &fakeSurface{extent: core.Extent2D{Width: 800, Height: 600}}
	cfg := core.DefaultConfiguration().Frame
	cfg.FramesInFlight = slots
	exec, err := frame.New(target, surface, cfg)
	c.Assert(err, qt.IsNil)
	return exec, target, surface
}

func TestThreeFrames(t *testing.T) {
	c := qt.New(t)
	exec, target, _ := newExecutor(c, 2)

	for i := 0; i < 3; i++ {
		c.Assert(exec.Frame(), qt.IsNil)
	}

	c.Assert(target.calls, qt.DeepEquals, []string{
		"wait 0", "acquire 0", "reset 0", "record 0 0", "submit 0", "present 0 0",
		"wait 1", "acquire 1", "reset 1", "record 1 1", "submit 1", "present 1 1",
		"wait 0", "acquire 0", "reset 0", "record 0 2", "submit 0", "present 0 2",
	})
	stats := exec.Stats()
	c.Assert(stats.Presents, qt.Equals, uint64(3))
	c.Assert(stats.Acquires, qt.Equals, uint64(3))
	c.Assert(stats.Submits, qt.Equals, uint64(3))
	c.Assert(stats.Rebuilds, qt.Equals, uint64(0))
	c.Assert(exec.Slot(), qt.Equals, 1)
}

func TestNoRebuildWithoutResize(t *testing.T) {
	c := qt.New(t)
	exec, target, _ := newExecutor(c, 3)
	for i := 0; i < 100; i++ {
		c.Assert(exec.Frame(), qt.IsNil)
	}
	c.Assert(target.rebuilds, qt.HasLen, 0)
	c.Assert(target.count("idle"), qt.Equals, 0)
	c.Assert(exec.Stats().Presents, qt.Equals, uint64(100))
}

func TestPresentOutOfDateRebuildsOnce(t *testing.T) {
	c := qt.New(t)
	exec, target, _ := newExecutor(c, 2)
	target.presentErrs = []error{core.NewError("swapchain", core.OutOfDate, "vk.QueuePresent()", nil)}

	c.Assert(exec.Frame(), qt.IsNil)
	c.Assert(target.rebuilds, qt.DeepEquals, []core.Extent2D{{Width: 800, Height: 600}})

	c.Assert(exec.Frame(), qt.IsNil)
	c.Assert(target.rebuilds, qt.HasLen, 1)
	stats := exec.Stats()
	c.Assert(stats.Presents, qt.Equals, uint64(1))
	c.Assert(stats.Frames, qt.Equals, uint64(2))
	c.Assert(stats.OutOfDate, qt.Equals, uint64(1))
	c.Assert(target.calls[len(target.calls)-1], qt.Equals, "present 1 1")
}

func TestAcquireOutOfDateRetriesSameSlot(t *testing.T) {
	c := qt.New(t)
	exec, target, _ := newExecutor(c, 2)
	target.acquireErrs = []error{core.NewError("swapchain", core.OutOfDate, "vk.AcquireNextImage()", nil)}

	c.Assert(exec.Frame(), qt.IsNil)
	c.Assert(target.calls, qt.DeepEquals, []string{
		"wait 0", "acquire 0", "idle", "rebuild 800x600",
		"wait 0", "acquire 0", "reset 0", "record 0 0", "submit 0", "present 0 0",
	})
	c.Assert(exec.Stats().Rebuilds, qt.Equals, uint64(1))
	c.Assert(exec.Slot(), qt.Equals, 1)
}

func TestPersistentOutOfDateFails(t *testing.T) {
	c := qt.New(t)
	exec, target, _ := newExecutor(c, 2)
	outOfDate := core.NewError("swapchain", core.OutOfDate, "vk.AcquireNextImage()", nil)
	target.acquireErrs = []error{outOfDate, outOfDate, outOfDate, outOfDate, outOfDate}

	err := exec.Frame()
	c.Assert(core.KindOf(err), qt.Equals, core.Internal)
	c.Assert(target.rebuilds, qt.HasLen, 3)
	c.Assert(target.count("submit"), qt.Equals, 0)
}

func TestResizeBetweenFrames(t *testing.T) {
	c := qt.New(t)
	exec, target, surface := newExecutor(c, 2)

	c.Assert(exec.Frame(), qt.IsNil)
	surface.resize(400, 300)
	c.Assert(exec.Frame(), qt.IsNil)
	c.Assert(exec.Frame(), qt.IsNil)

	c.Assert(target.rebuilds, qt.DeepEquals, []core.Extent2D{{Width: 400, Height: 300}})
	c.Assert(exec.Extent(), qt.Equals, core.Extent2D{Width: 400, Height: 300})
	c.Assert(exec.Stats().Presents, qt.Equals, uint64(3))

	// the rebuild happens before frame two acquires
	c.Assert(target.calls[6:9], qt.DeepEquals, []string{"idle", "rebuild 400x300", "wait 1"})
}

func TestMinimizedSkipsFrames(t *testing.T) {
	c := qt.New(t)
	exec, target, surface := newExecutor(c, 2)

	surface.resize(0, 0)
	c.Assert(exec.Frame(), qt.IsNil)
	c.Assert(exec.Frame(), qt.IsNil)
	c.Assert(exec.Stats().Skipped, qt.Equals, uint64(2))
	c.Assert(target.count("acquire"), qt.Equals, 0)
	c.Assert(target.rebuilds, qt.HasLen, 0)

	surface.resize(1024, 768)
	c.Assert(exec.Frame(), qt.IsNil)
	c.Assert(target.rebuilds, qt.DeepEquals, []core.Extent2D{{Width: 1024, Height: 768}})
	c.Assert(exec.Stats().Presents, qt.Equals, uint64(1))
}

func TestInFlightBoundedBySlots(t *testing.T) {
	for _, slots := range []int{1, 2, 3} {
		c := qt.New(t)
		exec, target, surface := newExecutor(c, slots)
		for i := 0; i < 50; i++ {
			if i == 20 {
				surface.resize(640, 480)
			}
			c.Assert(exec.Frame(), qt.IsNil)
		}
		c.Check(target.maxInFlight <= slots, qt.IsTrue, qt.Commentf("slots %d in flight %d", slots, target.maxInFlight))
	}
}

func TestFenceTimeoutIsFatal(t *testing.T) {
	c := qt.New(t)
	exec, target, _ := newExecutor(c, 2)
	target.waitErr = core.NewError("sync", core.Timeout, "vk.WaitForFences()", errors.New("VK_TIMEOUT"))

	err := exec.Frame()
	c.Assert(core.IsKind(err, core.Timeout), qt.IsTrue)
	c.Assert(core.KindOf(err).Fatal(), qt.IsTrue)
	c.Assert(target.count("acquire"), qt.Equals, 0)
}

func TestFenceErrorKeepsKind(t *testing.T) {
	c := qt.New(t)
	cases := []struct {
		err  error
		kind core.ErrorKind
	}{
		{core.NewError("sync", core.Internal, "vk.WaitForFences()", errors.New("VK_ERROR_OUT_OF_HOST_MEMORY")), core.Internal},
		{core.NewError("sync", core.DeviceLost, "vk.WaitForFences()", nil), core.DeviceLost},
		{errors.New("unclassified"), core.Internal},
	}
	for _, tc := range cases {
		exec, target, _ := newExecutor(c, 2)
		target.waitErr = tc.err

		err := exec.Frame()
		c.Assert(core.KindOf(err), qt.Equals, tc.kind, qt.Commentf("%v", tc.err))
		c.Assert(target.count("acquire"), qt.Equals, 0)
	}
}

func TestAcquireSurfaceLostIsFatal(t *testing.T) {
	c := qt.New(t)
	exec, target, _ := newExecutor(c, 2)
	target.acquireErrs = []error{core.NewError("swapchain", core.SurfaceLost, "vk.AcquireNextImage()", nil)}

	err := exec.Frame()
	c.Assert(core.IsKind(err, core.SurfaceLost), qt.IsTrue)
	c.Assert(target.count("reset"), qt.Equals, 0)
}

func TestShutdownWaitsIdleFirst(t *testing.T) {
	c := qt.New(t)
	exec, target, _ := newExecutor(c, 2)
	c.Assert(exec.Frame(), qt.IsNil)

	c.Assert(exec.Shutdown(), qt.IsNil)
	c.Assert(target.calls[len(target.calls)-2:], qt.DeepEquals, []string{"idle", "release"})
	c.Assert(target.inFlight(), qt.Equals, 0)

	c.Assert(exec.Shutdown(), qt.IsNil)
	c.Assert(target.count("release"), qt.Equals, 1)
	c.Assert(exec.Frame(), qt.Not(qt.IsNil))
}

func TestRunStopsOnCancel(t *testing.T) {
	c := qt.New(t)
	exec, target, _ := newExecutor(c, 2)

	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan time.Time)
	done := make(chan error)
	go func() {
		done <- exec.Run(ctx, ticks, nil)
	}()
	for i := 0; i < 3; i++ {
		ticks <- time.Now()
	}
	cancel()

	c.Assert(<-done, qt.IsNil)
	c.Assert(exec.Stats().Presents, qt.Equals, uint64(3))
	c.Assert(target.calls[len(target.calls)-2:], qt.DeepEquals, []string{"idle", "release"})
}

func TestRunReturnsFatalError(t *testing.T) {
	c := qt.New(t)
	exec, target, _ := newExecutor(c, 2)
	target.presentErrs = []error{nil, core.NewError("swapchain", core.SurfaceLost, "vk.QueuePresent()", nil)}

	ticks := make(chan time.Time, 5)
	for i := 0; i < 5; i++ {
		ticks <- time.Now()
	}
	err := exec.Run(context.Background(), ticks, nil)
	c.Assert(core.IsKind(err, core.SurfaceLost), qt.IsTrue)
	c.Assert(exec.Stats().Presents, qt.Equals, uint64(1))
	c.Assert(target.released, qt.IsTrue)
}

func TestNewRejectsZeroSlots(t *testing.T) {
	c := qt.New(t)
	_, err := frame.New(newFakeTarget(t, 0), &fakeSurface{}, core.FrameConfiguration{})
	c.Assert(core.IsKind(err, core.InitError), qt.IsTrue)
}
