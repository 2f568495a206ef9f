// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package assets loads compiled shaders for the renderer.
// Shaders are looked up by name following the
// <name>.<vert|frag>.spv naming convention.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devblok/korutri/core"
	"github.com/devblok/korutri/utility/kar"
	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"
)

// ErrShaderNotFound is returned when a source has no shader of a name.
var ErrShaderNotFound = errors.New("shader not found")

// Source provides compiled shader blobs.
type Source interface {
	// Shaders returns the vertex and fragment shaders of a name.
	Shaders(name string) (core.ShaderSet, error)

	// Names lists the names of complete shader sets.
	Names() ([]string, error)
}

// Open returns the source described by location: "dir:<path>",
// "kar:<file>" or "box" for the shaders compiled into the binary.
func Open(location string) (Source, error) {
	switch {
	case location == "box":
		return Box(packr.NewBox("../shaders")), nil
	case strings.HasPrefix(location, "dir:"):
		return Directory(strings.TrimPrefix(location, "dir:")), nil
	case strings.HasPrefix(location, "kar:"):
		return OpenArchive(strings.TrimPrefix(location, "kar:"))
	default:
		return nil, fmt.Errorf("unknown shader source %q", location)
	}
}

// Load reads and validates a shader set, failures
// are reported as a ShaderCompileError.
func Load(src Source, name string) (core.ShaderSet, error) {
	set, err := src.Shaders(name)
	if err != nil {
		return core.ShaderSet{}, core.NewError("shader", core.ShaderCompileError, "load "+name, err)
	}
	if err := core.ValidateSPIRV(set.Vertex); err != nil {
		return core.ShaderSet{}, core.NewError("shader", core.ShaderCompileError, core.ShaderFileName(name, core.VertexShaderType), err)
	}
	if err := core.ValidateSPIRV(set.Fragment); err != nil {
		return core.ShaderSet{}, core.NewError("shader", core.ShaderCompileError, core.ShaderFileName(name, core.FragmentShaderType), err)
	}
	log.WithFields(log.Fields{
		"component": "shader",
		"name":      name,
		"vert":      len(set.Vertex),
		"frag":      len(set.Fragment),
	}).Debug("shaders loaded")
	return set, nil
}

type fileFunc func(file string) ([]byte, error)

func loadSet(name string, read fileFunc) (core.ShaderSet, error) {
	vert, err := read(core.ShaderFileName(name, core.VertexShaderType))
	if err != nil {
		return core.ShaderSet{}, err
	}
	frag, err := read(core.ShaderFileName(name, core.FragmentShaderType))
	if err != nil {
		return core.ShaderSet{}, err
	}
	return core.ShaderSet{
		Name:     name,
		Vertex:   vert,
		Fragment: frag,
	}, nil
}

// completeSets returns the names that have both a vertex
// and a fragment shader among files.
func completeSets(files []string) []string {
	seen := make(map[string]int)
	var names []string
	for _, file := range files {
		name, shaderType, ok := core.ParseShaderFileName(filepath.Base(file))
		if !ok {
			continue
		}
		before := seen[name]
		seen[name] |= 1 << uint(shaderType)
		if before != 3 && seen[name] == 3 {
			names = append(names, name)
		}
	}
	return names
}

// Directory reads shaders from a directory on disk.
type Directory string

// Shaders implements Source.
func (d Directory) Shaders(name string) (core.ShaderSet, error) {
	return loadSet(name, func(file string) ([]byte, error) {
		data, err := os.ReadFile(filepath.Join(string(d), file))
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", file, ErrShaderNotFound)
		}
		return data, err
	})
}

// Names implements Source. All files that are compiled shaders
// are considered, sub directories included.
func (d Directory) Names() ([]string, error) {
	var files []string
	if err := filepath.Walk(string(d), func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !f.IsDir() && strings.HasSuffix(f.Name(), core.ShaderSuffix) {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return completeSets(files), nil
}

type box struct {
	box packr.Box
}

// Box reads shaders packed into the binary by packr.
func Box(b packr.Box) Source {
	return box{box: b}
}

func (b box) Shaders(name string) (core.ShaderSet, error) {
	return loadSet(name, func(file string) ([]byte, error) {
		if !b.box.Has(file) {
			return nil, fmt.Errorf("%s: %w", file, ErrShaderNotFound)
		}
		return b.box.Find(file)
	})
}

func (b box) Names() ([]string, error) {
	return completeSets(b.box.List()), nil
}

// Archive reads shaders from a kar archive.
type Archive struct {
	archive *kar.Archive
	closer  func() error
}

// NewArchive wraps an already opened archive.
func NewArchive(ar *kar.Archive) *Archive {
	return &Archive{archive: ar}
}

// OpenArchive memory maps a kar file. The archive
// must be closed once the shaders are loaded.
func OpenArchive(path string) (*Archive, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	ar, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Archive{archive: ar, closer: r.Close}, nil
}

// Shaders implements Source.
func (a *Archive) Shaders(name string) (core.ShaderSet, error) {
	return loadSet(name, func(file string) ([]byte, error) {
		data, err := a.archive.ReadAll(file)
		if errors.Is(err, kar.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", file, ErrShaderNotFound)
		}
		return data, err
	})
}

// Names implements Source.
func (a *Archive) Names() ([]string, error) {
	return completeSets(a.archive.Files()), nil
}

// Close unmaps the archive file, if it was opened by OpenArchive.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}
