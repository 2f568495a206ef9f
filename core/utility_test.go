// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"encoding/binary"
	"testing"

	"github.com/devblok/korutri/core"
	qt "github.com/frankban/quicktest"
)

func spirv(words ...uint32) []byte {
	blob := make([]byte, 4*(5+len(words)))
	binary.LittleEndian.PutUint32(blob, core.SPIRVMagic)
	for idx, w := range words {
		binary.LittleEndian.PutUint32(blob[4*(5+idx):], w)
	}
	return blob
}

func TestParseShaderFileName(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		file string
		name string
		typ  core.ShaderType
		ok   bool
	}{
		{"triangle.vert.spv", "triangle", core.VertexShaderType, true},
		{"triangle.frag.spv", "triangle", core.FragmentShaderType, true},
		{"triangle.geom.spv", "", core.UnknownShaderType, false},
		{"triangle.vert", "", core.UnknownShaderType, false},
		{"a.b.vert.spv", "", core.UnknownShaderType, false},
		{".vert.spv", "", core.UnknownShaderType, false},
	}
	for _, test := range tests {
		name, typ, ok := core.ParseShaderFileName(test.file)
		c.Check(ok, qt.Equals, test.ok, qt.Commentf("%s", test.file))
		c.Check(name, qt.Equals, test.name, qt.Commentf("%s", test.file))
		c.Check(typ, qt.Equals, test.typ, qt.Commentf("%s", test.file))
	}
}

func TestShaderFileName(t *testing.T) {
	c := qt.New(t)
	c.Assert(core.ShaderFileName("embedded", core.VertexShaderType), qt.Equals, "embedded.vert.spv")
	name, typ, ok := core.ParseShaderFileName(core.ShaderFileName("embedded", core.FragmentShaderType))
	c.Assert(ok, qt.IsTrue)
	c.Assert(name, qt.Equals, "embedded")
	c.Assert(typ, qt.Equals, core.FragmentShaderType)
}

func TestSliceUint32(t *testing.T) {
	c := qt.New(t)
	blob := spirv(0xdeadbeef)
	words := core.SliceUint32(blob)
	c.Assert(words, qt.HasLen, 6)
	c.Assert(words[0], qt.Equals, uint32(core.SPIRVMagic))
	c.Assert(words[5], qt.Equals, uint32(0xdeadbeef))
	c.Assert(core.SliceUint32(nil), qt.IsNil)
}

func TestValidateSPIRV(t *testing.T) {
	c := qt.New(t)
	c.Assert(core.ValidateSPIRV(spirv()), qt.IsNil)
	c.Assert(core.ValidateSPIRV(nil), qt.ErrorMatches, "empty shader")
	c.Assert(core.ValidateSPIRV(make([]byte, 22)), qt.ErrorMatches, "shader size 22 .*")
	c.Assert(core.ValidateSPIRV(make([]byte, 8)), qt.ErrorMatches, "shader shorter .*")
	c.Assert(core.ValidateSPIRV(make([]byte, 24)), qt.ErrorMatches, "bad SPIR-V magic .*")
}

func BenchmarkSliceUint32Small(b *testing.B) {
	data := make([]byte, 100)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Medium(b *testing.B) {
	data := make([]byte, 1000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Big(b *testing.B) {
	data := make([]byte, 100000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}
