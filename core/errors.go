// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"strings"
)

// ErrorKind classifies renderer failures.
type ErrorKind int

// Known error kinds. Only OutOfDate is recovered from,
// everything else ends the program.
const (
	Internal ErrorKind = iota
	InitError
	NoAcceleratorFound
	NoSuitableDevice
	SurfaceLost
	FormatUnsupported
	OutOfDate
	Timeout
	DeviceLost
	ShaderCompileError
	PipelineCreateError
)

var kindNames = map[ErrorKind]string{
	Internal:            "Internal",
	InitError:           "InitError",
	NoAcceleratorFound:  "NoAcceleratorFound",
	NoSuitableDevice:    "NoSuitableDevice",
	SurfaceLost:         "SurfaceLost",
	FormatUnsupported:   "FormatUnsupported",
	OutOfDate:           "OutOfDate",
	Timeout:             "Timeout",
	DeviceLost:          "DeviceLost",
	ShaderCompileError:  "ShaderCompileError",
	PipelineCreateError: "PipelineCreateError",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Fatal reports whether an error of this kind ends the program.
func (k ErrorKind) Fatal() bool {
	return k != OutOfDate
}

// Error is the error type returned by every renderer component.
type Error struct {
	// Component that failed, e.g. "swapchain".
	Component string
	Kind      ErrorKind
	// Op is the failing call, e.g. "vk.CreateSwapchain()".
	Op  string
	Err error
}

// NewError creates an Error. err may be nil.
func NewError(component string, kind ErrorKind, op string, err error) *Error {
	return &Error{
		Component: component,
		Kind:      kind,
		Op:        op,
		Err:       err,
	}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Component)
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by component and kind, any
// empty component on the target matches all components.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Component == "" || t.Component == e.Component)
}

// KindOf returns the kind of the first *Error in the chain,
// Internal if there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// ComponentOf returns the component of the first *Error in the chain.
func ComponentOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Component
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
