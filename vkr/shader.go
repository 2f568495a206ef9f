// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/korutri/core"
	vk "github.com/vulkan-go/vulkan"
)

// Shader is a compiled shader module of one pipeline stage.
type Shader struct {
	device     *Device
	shaderType core.ShaderType
	module     vk.ShaderModule
}

// NewShader creates a shader module from a SPIR-V blob.
// Blobs that are not SPIR-V never reach the driver.
func NewShader(device *Device, name string, shaderType core.ShaderType, code []byte) (*Shader, error) {
	op := core.ShaderFileName(name, shaderType)
	if err := core.ValidateSPIRV(code); err != nil {
		return nil, core.NewError("shader", core.ShaderCompileError, op, err)
	}

	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    core.SliceUint32(code),
	}

	var module vk.ShaderModule
	if err := check("shader", core.ShaderCompileError, op, vk.CreateShaderModule(device.device, &smci, nil, &module)); err != nil {
		return nil, err
	}
	device.tracker.Created(objShaderModule, 1)

	return &Shader{
		device:     device,
		shaderType: shaderType,
		module:     module,
	}, nil
}

func (s *Shader) stage() vk.PipelineShaderStageCreateInfo {
	stage := vk.ShaderStageVertexBit
	if s.shaderType == core.FragmentShaderType {
		stage = vk.ShaderStageFragmentBit
	}
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: s.module,
		PName:  "main\x00",
	}
}

// Release destroys the shader module.
func (s *Shader) Release() {
	vk.DestroyShaderModule(s.device.device, s.module, nil)
	s.device.tracker.Destroyed(objShaderModule, 1)
}
