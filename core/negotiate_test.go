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

func TestChooseExtent(t *testing.T) {
	c := qt.New(t)
	limits := core.SurfaceLimits{
		Current: core.Extent2D{Width: 800, Height: 600},
		Min:     core.Extent2D{Width: 1, Height: 1},
		Max:     core.Extent2D{Width: 4096, Height: 4096},
	}
	c.Assert(core.ChooseExtent(limits, core.Extent2D{Width: 400, Height: 300}), qt.Equals, core.Extent2D{Width: 800, Height: 600})

	limits.Current = core.Extent2D{Width: core.UndefinedExtent, Height: core.UndefinedExtent}
	c.Assert(core.ChooseExtent(limits, core.Extent2D{Width: 400, Height: 300}), qt.Equals, core.Extent2D{Width: 400, Height: 300})
	c.Assert(core.ChooseExtent(limits, core.Extent2D{Width: 8000, Height: 0}), qt.Equals, core.Extent2D{Width: 4096, Height: 1})
}

func TestChooseImageCount(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		min, max, requested, want uint32
	}{
		{2, 8, 0, 3},
		{2, 0, 0, 3},
		{2, 2, 0, 2},
		{2, 8, 1, 2},
		{2, 8, 3, 3},
		{2, 4, 16, 4},
		{1, 0, 16, 16},
	}
	for _, test := range tests {
		limits := core.SurfaceLimits{MinImageCount: test.min, MaxImageCount: test.max}
		c.Check(core.ChooseImageCount(limits, test.requested), qt.Equals, test.want,
			qt.Commentf("min %d max %d requested %d", test.min, test.max, test.requested))
	}
}

func TestExtentEmpty(t *testing.T) {
	c := qt.New(t)
	c.Assert(core.Extent2D{}.Empty(), qt.IsTrue)
	c.Assert(core.Extent2D{Width: 10}.Empty(), qt.IsTrue)
	c.Assert(core.Extent2D{Width: 10, Height: 1}.Empty(), qt.IsFalse)
}
