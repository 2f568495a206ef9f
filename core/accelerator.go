// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"
	"strings"
)

// AcceleratorType is the kind of a physical device.
type AcceleratorType int

// Known accelerator types, values match the Vulkan enumeration.
const (
	OtherAccelerator AcceleratorType = iota
	IntegratedAccelerator
	DiscreteAccelerator
	VirtualAccelerator
	CPUAccelerator
)

func (t AcceleratorType) String() string {
	switch t {
	case IntegratedAccelerator:
		return "integrated"
	case DiscreteAccelerator:
		return "discrete"
	case VirtualAccelerator:
		return "virtual"
	case CPUAccelerator:
		return "cpu"
	default:
		return "other"
	}
}

// MarshalText lets descriptors print the type by name.
func (t AcceleratorType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t AcceleratorType) rank() int64 {
	switch t {
	case DiscreteAccelerator:
		return 4
	case IntegratedAccelerator:
		return 3
	case VirtualAccelerator:
		return 2
	case CPUAccelerator:
		return 1
	default:
		return 0
	}
}

// QueueFamily describes one queue family of an accelerator.
type QueueFamily struct {
	Index    uint32
	Count    uint32
	Graphics bool
	// Present is only known once a surface exists.
	Present bool
}

// AcceleratorInfo describes available physical properties of a rendering device.
// It is a plain record, the device it was read from is not owned by it.
type AcceleratorInfo struct {
	ID                  int
	VendorID            int
	DriverVersion       int
	Name                string
	Type                AcceleratorType
	MaxImageDimension2D uint32
	Extensions          []string
	Memory              uint64
	QueueFamilies       []QueueFamily

	// Counts reported for the target surface.
	SurfaceFormats int
	PresentModes   int
}

// HasExtension reports whether the accelerator offers the extension.
func (a AcceleratorInfo) HasExtension(name string) bool {
	name = strings.TrimRight(name, "\x00")
	for _, ext := range a.Extensions {
		if ext == name {
			return true
		}
	}
	return false
}

// RenderFamily returns the first queue family that can both
// draw and present.
func (a AcceleratorInfo) RenderFamily() (QueueFamily, bool) {
	for _, qf := range a.QueueFamilies {
		if qf.Graphics && qf.Present && qf.Count > 0 {
			return qf, true
		}
	}
	return QueueFamily{}, false
}

// Rank orders accelerators regardless of suitability,
// by type first and maximum 2D image dimension second.
func Rank(info AcceleratorInfo) int64 {
	return info.Type.rank()<<32 | int64(info.MaxImageDimension2D)
}

// Score returns the suitability score of an accelerator for rendering
// to a surface with the given device extensions. A negative score
// means rejection and reason tells why.
func Score(info AcceleratorInfo, required []string) (score int64, reason string) {
	if _, ok := info.RenderFamily(); !ok {
		return -1, "no queue family supports both graphics and presentation"
	}
	for _, ext := range required {
		if !info.HasExtension(ext) {
			return -1, "missing extension " + strings.TrimRight(ext, "\x00")
		}
	}
	if info.SurfaceFormats == 0 {
		return -1, "surface reports no formats"
	}
	if info.PresentModes == 0 {
		return -1, "surface reports no present modes"
	}
	return Rank(info), ""
}

// SelectAccelerator returns the index of the highest scoring accelerator.
// Ties keep the earlier candidate.
func SelectAccelerator(infos []AcceleratorInfo, required []string) (int, error) {
	if len(infos) == 0 {
		return -1, NewError("device", NoAcceleratorFound, "", errors.New("no accelerators to select from"))
	}

	best, bestScore := -1, int64(-1)
	var rejected []string
	for idx, info := range infos {
		score, reason := Score(info, required)
		if score < 0 {
			rejected = append(rejected, fmt.Sprintf("%s: %s", info.Name, reason))
			continue
		}
		if score > bestScore {
			best, bestScore = idx, score
		}
	}
	if best < 0 {
		return -1, NewError("device", NoSuitableDevice, "", errors.New(strings.Join(rejected, "; ")))
	}
	return best, nil
}
