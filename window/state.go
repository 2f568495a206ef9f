// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import (
	"context"

	"github.com/devblok/korutri/core"
	log "github.com/sirupsen/logrus"
)

// state is what a window tracks between two Resized calls.
type state struct {
	cancel context.CancelFunc

	last      core.Extent2D
	resized   bool
	minimized bool
	closed    bool

	log *log.Entry
}

func newState(cancel context.CancelFunc) state {
	return state{
		cancel: cancel,
		log:    log.WithField("component", "window"),
	}
}

func (s *state) sizeChanged() {
	s.resized = true
}

func (s *state) setMinimized(minimized bool) {
	if s.minimized == minimized {
		return
	}
	s.minimized = minimized
	s.resized = true
}

// update records the current extent and reports whether
// it changed since the previous update.
func (s *state) update(extent core.Extent2D) bool {
	changed := s.resized || extent != s.last
	s.resized = false
	s.last = extent
	return changed
}

func (s *state) close() {
	if s.closed {
		return
	}
	s.closed = true
	s.log.Info("window closed")
	if s.cancel != nil {
		s.cancel()
	}
}

// Closed reports whether the user asked to close the window.
func (s *state) Closed() bool {
	return s.closed
}
