// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unsafe"
)

// ShaderSuffix is the extension of compiled shaders.
const ShaderSuffix = ".spv"

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic = 0x07230203

// ParseShaderFileName splits a compiled shader file name into it's name and type.
// It is important that the file name does not contain more than two dots,
// the first is always the name of the shader, second is type, and the third one
// ensured that the shader is compiled (only compiled shaders have an .spv extension).
// ok is false for anything that is not a compiled shader.
func ParseShaderFileName(file string) (name string, shaderType ShaderType, ok bool) {
	if !strings.HasSuffix(file, ShaderSuffix) {
		return "", UnknownShaderType, false
	}
	nodes := strings.Split(strings.TrimSuffix(file, ShaderSuffix), ".")
	if len(nodes) != 2 || nodes[0] == "" {
		return "", UnknownShaderType, false
	}

	switch nodes[1] {
	case "frag":
		return nodes[0], FragmentShaderType, true
	case "vert":
		return nodes[0], VertexShaderType, true
	default:
		return "", UnknownShaderType, false
	}
}

// ShaderFileName is the inverse of ParseShaderFileName.
func ShaderFileName(name string, shaderType ShaderType) string {
	return name + "." + shaderType.String() + ShaderSuffix
}

// SliceUint32 reslices bytes into a uint32, that is used
// to sumbit vulkan shaders for processing
func SliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

// ValidateSPIRV checks that blob looks like a SPIR-V module.
func ValidateSPIRV(blob []byte) error {
	if len(blob) == 0 {
		return errors.New("empty shader")
	}
	if len(blob)%4 != 0 {
		return fmt.Errorf("shader size %d is not a multiple of 4", len(blob))
	}
	if len(blob) < 20 {
		return errors.New("shader shorter than a SPIR-V header")
	}
	if magic := binary.LittleEndian.Uint32(blob); magic != SPIRVMagic {
		return fmt.Errorf("bad SPIR-V magic %#08x", magic)
	}
	return nil
}
