// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/korutri/core"
	"github.com/devblok/korutri/model"
	vk "github.com/vulkan-go/vulkan"
)

// NewPipelineCache creates an empty pipeline cache.
// It outlives pipelines and is kept across rebuilds.
func NewPipelineCache(device *Device) (*PipelineCache, error) {
	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}

	var pipelineCache vk.PipelineCache
	if err := check("pipeline", core.PipelineCreateError, "vk.CreatePipelineCache()", vk.CreatePipelineCache(device.device, &pcci, nil, &pipelineCache)); err != nil {
		return nil, err
	}
	device.tracker.Created(objCache, 1)
	return &PipelineCache{device: device, cache: pipelineCache}, nil
}

// PipelineCache speeds up recreating pipelines.
type PipelineCache struct {
	device *Device
	cache  vk.PipelineCache
}

// Release destroys the cache.
func (p *PipelineCache) Release() {
	vk.DestroyPipelineCache(p.device.device, p.cache, nil)
	p.device.tracker.Destroyed(objCache, 1)
}

// PipelineDescription is everything a Pipeline is built from.
type PipelineDescription struct {
	Format  vk.Format
	Extent  core.Extent2D
	Shaders core.ShaderSet
	Layout  model.Layout
}

// NewPipeline creates the render pass, the pipeline layout and the
// graphics pipeline drawing the shader set into images of format.
// Viewport and scissor are baked in, a new extent needs a new pipeline.
func NewPipeline(device *Device, cache *PipelineCache, desc PipelineDescription) (*Pipeline, error) {
	p := &Pipeline{
		device: device,
		format: desc.Format,
		extent: desc.Extent,
	}
	if err := p.createRenderPass(); err != nil {
		return nil, err
	}
	if err := p.createPipelineLayout(); err != nil {
		p.Release()
		return nil, err
	}
	if err := p.createPipeline(cache, desc.Shaders, desc.Layout); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

// Pipeline is a graphics pipeline together with the
// render pass it is compatible with.
type Pipeline struct {
	device *Device
	format vk.Format
	extent core.Extent2D

	renderPass vk.RenderPass
	layout     vk.PipelineLayout
	pipeline   vk.Pipeline

	hasRenderPass, hasLayout, hasPipeline bool
}

// RenderPass returns the render pass handle.
func (p *Pipeline) RenderPass() vk.RenderPass {
	return p.renderPass
}

// Handle returns the pipeline handle.
func (p *Pipeline) Handle() vk.Pipeline {
	return p.pipeline
}

// Format is the color attachment format the pipeline was built for.
func (p *Pipeline) Format() vk.Format {
	return p.format
}

// Extent is the viewport size the pipeline was built for.
func (p *Pipeline) Extent() core.Extent2D {
	return p.extent
}

func (p *Pipeline) createRenderPass() error {
	attachments := []vk.AttachmentDescription{{
		Format:         p.format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	// the image is written only after the acquire semaphore wait
	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorAttachmentRef)),
		PColorAttachments:    colorAttachmentRef,
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	var renderPass vk.RenderPass
	if err := check("pipeline", core.PipelineCreateError, "vk.CreateRenderPass()", vk.CreateRenderPass(p.device.device, &rpci, nil, &renderPass)); err != nil {
		return err
	}
	p.renderPass = renderPass
	p.hasRenderPass = true
	p.device.tracker.Created(objRenderPass, 1)
	return nil
}

func (p *Pipeline) createPipelineLayout() error {
	plci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}

	var pipelineLayout vk.PipelineLayout
	if err := check("pipeline", core.PipelineCreateError, "vk.CreatePipelineLayout()", vk.CreatePipelineLayout(p.device.device, &plci, nil, &pipelineLayout)); err != nil {
		return err
	}
	p.layout = pipelineLayout
	p.hasLayout = true
	p.device.tracker.Created(objLayout, 1)
	return nil
}

func (p *Pipeline) createPipeline(cache *PipelineCache, shaders core.ShaderSet, layout model.Layout) error {
	vertex, err := NewShader(p.device, shaders.Name, core.VertexShaderType, shaders.Vertex)
	if err != nil {
		return err
	}
	defer vertex.Release()

	fragment, err := NewShader(p.device, shaders.Name, core.FragmentShaderType, shaders.Fragment)
	if err != nil {
		return err
	}
	defer fragment.Release()

	stages := []vk.PipelineShaderStageCreateInfo{
		vertex.stage(),
		fragment.stage(),
	}

	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   vertexInputState(layout),
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			PViewports:    []vk.Viewport{viewport(p.extent)},
			ScissorCount:  1,
			PScissors:     []vk.Rect2D{scissor(p.extent)},
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(vk.CullModeNone),
			FrontFace:   vk.FrontFaceClockwise,
			LineWidth:   1.0,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
			MinSampleShading:     1.0,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOp:         vk.LogicOpCopy,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
				BlendEnable:    vk.False,
			}},
		},
		Layout:             p.layout,
		RenderPass:         p.renderPass,
		BasePipelineHandle: vk.Pipeline(vk.NullHandle),
		BasePipelineIndex:  -1,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := check("pipeline", core.PipelineCreateError, "vk.CreateGraphicsPipelines()",
		vk.CreateGraphicsPipelines(p.device.device, cache.cache, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		return err
	}
	p.pipeline = pipelines[0]
	p.hasPipeline = true
	p.device.tracker.Created(objPipeline, 1)
	return nil
}

// Release destroys whatever part of the pipeline got created.
func (p *Pipeline) Release() {
	if p.hasPipeline {
		vk.DestroyPipeline(p.device.device, p.pipeline, nil)
		p.device.tracker.Destroyed(objPipeline, 1)
		p.hasPipeline = false
	}
	if p.hasLayout {
		vk.DestroyPipelineLayout(p.device.device, p.layout, nil)
		p.device.tracker.Destroyed(objLayout, 1)
		p.hasLayout = false
	}
	if p.hasRenderPass {
		vk.DestroyRenderPass(p.device.device, p.renderPass, nil)
		p.device.tracker.Destroyed(objRenderPass, 1)
		p.hasRenderPass = false
	}
}

func vertexInputState(layout model.Layout) *vk.PipelineVertexInputStateCreateInfo {
	return &vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(layout.Bindings)),
		PVertexBindingDescriptions:      layout.Bindings,
		VertexAttributeDescriptionCount: uint32(len(layout.Attributes)),
		PVertexAttributeDescriptions:    layout.Attributes,
	}
}

func viewport(extent core.Extent2D) vk.Viewport {
	return vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
}

func scissor(extent core.Extent2D) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{Width: extent.Width, Height: extent.Height},
	}
}
