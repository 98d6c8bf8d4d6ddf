package wgpu

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/scopeview/gpucore"
)

// Uniform block sizes. Layouts match the WGSL structs, padded to 16 bytes.
const (
	blockHistUniformSize   = 32 // bin_count, region_w, region_h, image_w, image_h
	consolidateUniformSize = 16 // bin_count, invocation_bin_count
	imageFrameUniformSize  = 80 // pmv + image_w, image_h, filter_linear
	imageShadeUniformSize  = 16 // min_v, max_v, gamma
	histoFrameUniformSize  = 80 // pmv + bin_count, bin_scale, view_w, view_h
	histoGammaUniformSize  = 16 // gamma
)

// uniformCache remembers the last bytes written to a uniform buffer so
// redundant uploads can be skipped.
type uniformCache struct {
	valid bool
	data  []byte
}

// update reports whether b differs from the cached bytes, caching b when it
// does.
func (c *uniformCache) update(b []byte) bool {
	if c.valid && bytes.Equal(c.data, b) {
		return false
	}
	c.data = append(c.data[:0], b...)
	c.valid = true
	return true
}

// computeProgram is one compute stage: shader, layouts, pipeline, and its
// uniform buffer.
type computeProgram struct {
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
	uniformBuf hal.Buffer
}

// imageProgram carries the image draw pipelines, one per colorization
// variant, plus the static unit quad and a scratch highlight buffer bound
// for the non-highlight variants.
type imageProgram struct {
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipelines  [4]hal.RenderPipeline

	frameBuf hal.Buffer
	shadeBuf hal.Buffer
	shade    uniformCache

	quadVerts        hal.Buffer
	scratchHighlight hal.Buffer
}

// histoProgram carries the histogram draw pipelines: the line strip over the
// bin-index vertex buffer and the instanced point quads.
type histoProgram struct {
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	linePipe   hal.RenderPipeline
	pointPipe  hal.RenderPipeline

	frameBuf hal.Buffer
	gammaBuf hal.Buffer
	gamma    uniformCache
}

type programs struct {
	blockHist   computeProgram
	consolidate computeProgram
	image       imageProgram
	histo       histoProgram
}

// create builds every program. On failure the partially built set is torn
// down before returning.
func (p *programs) create(device hal.Device, queue hal.Queue) error {
	build := func() error {
		if err := p.createBlockHist(device); err != nil {
			return err
		}
		if err := p.createConsolidate(device); err != nil {
			return err
		}
		if err := p.createImage(device, queue); err != nil {
			return err
		}
		return p.createHisto(device)
	}
	if err := build(); err != nil {
		p.destroy(device)
		return err
	}
	return nil
}

func (p *programs) createBlockHist(device hal.Device) error {
	shader, err := compileShader(device, "block_histogram", blockHistogramWGSL)
	if err != nil {
		return err
	}
	p.blockHist.shader = shader

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "block_histogram_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeUint,
				ViewDimension: gputypes.TextureViewDimension2D,
			}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create block_histogram bind layout: %w", err)
	}
	p.blockHist.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "block_histogram_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create block_histogram pipeline layout: %w", err)
	}
	p.blockHist.pipeLayout = pipeLayout

	pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "block_histogram_pipeline",
		Layout:  pipeLayout,
		Compute: hal.ComputeState{Module: shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create block_histogram pipeline: %w", err)
	}
	p.blockHist.pipeline = pipeline

	p.blockHist.uniformBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "block_histogram_uniforms",
		Size:  blockHistUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create block_histogram uniforms: %w", err)
	}
	return nil
}

func (p *programs) createConsolidate(device hal.Device) error {
	shader, err := compileShader(device, "histogram_consolidate", histogramConsolidateWGSL)
	if err != nil {
		return err
	}
	p.consolidate.shader = shader

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "histogram_consolidate_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create histogram_consolidate bind layout: %w", err)
	}
	p.consolidate.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "histogram_consolidate_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create histogram_consolidate pipeline layout: %w", err)
	}
	p.consolidate.pipeLayout = pipeLayout

	pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "histogram_consolidate_pipeline",
		Layout:  pipeLayout,
		Compute: hal.ComputeState{Module: shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create histogram_consolidate pipeline: %w", err)
	}
	p.consolidate.pipeline = pipeline

	p.consolidate.uniformBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "histogram_consolidate_uniforms",
		Size:  consolidateUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create histogram_consolidate uniforms: %w", err)
	}
	return nil
}

// imageEntryPoints maps ColorVariant to its fragment entry point.
var imageEntryPoints = [4]string{
	gpucore.ColorPlain:          "fs_plain",
	gpucore.ColorPlainHighlight: "fs_plain_highlight",
	gpucore.ColorGamma:          "fs_gamma",
	gpucore.ColorGammaHighlight: "fs_gamma_highlight",
}

func (p *programs) createImage(device hal.Device, queue hal.Queue) error {
	shader, err := compileShader(device, "image_draw", imageDrawWGSL)
	if err != nil {
		return err
	}
	p.image.shader = shader

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "image_draw_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageFragment, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 2, Visibility: gputypes.ShaderStageFragment, Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeUint,
				ViewDimension: gputypes.TextureViewDimension2D,
			}},
			{Binding: 3, Visibility: gputypes.ShaderStageFragment, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create image_draw bind layout: %w", err)
	}
	p.image.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "image_draw_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create image_draw pipeline layout: %w", err)
	}
	p.image.pipeLayout = pipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	for v, entry := range imageEntryPoints {
		pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
			Label:  "image_draw_" + entry,
			Layout: pipeLayout,
			Vertex: hal.VertexState{
				Module:     shader,
				EntryPoint: "vs_main",
				Buffers:    imageVertexLayout(),
			},
			Fragment: &hal.FragmentState{
				Module:     shader,
				EntryPoint: entry,
				Targets: []gputypes.ColorTargetState{
					{
						Format:    gputypes.TextureFormatBGRA8Unorm,
						Blend:     &premulBlend,
						WriteMask: gputypes.ColorWriteMaskAll,
					},
				},
			},
			Primitive: gputypes.PrimitiveState{
				Topology: gputypes.PrimitiveTopologyTriangleList,
				CullMode: gputypes.CullModeNone,
			},
			Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		})
		if err != nil {
			return fmt.Errorf("create image_draw pipeline %s: %w", entry, err)
		}
		p.image.pipelines[v] = pipeline
	}

	p.image.frameBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "image_draw_frame_uniforms",
		Size:  imageFrameUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create image_draw frame uniforms: %w", err)
	}
	p.image.shadeBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "image_draw_shade_uniforms",
		Size:  imageShadeUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create image_draw shade uniforms: %w", err)
	}

	p.image.quadVerts, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "image_draw_quad",
		Size:  uint64(len(quadVertexData())),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create image_draw quad: %w", err)
	}
	queue.WriteBuffer(p.image.quadVerts, 0, quadVertexData())

	p.image.scratchHighlight, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "image_draw_scratch_highlight",
		Size:  gpucore.HighlightBufferSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create image_draw scratch highlight: %w", err)
	}
	return nil
}

func (p *programs) createHisto(device hal.Device) error {
	shader, err := compileShader(device, "histogram_draw", histogramDrawWGSL)
	if err != nil {
		return err
	}
	p.histo.shader = shader

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "histogram_draw_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageVertex, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageVertex, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 2, Visibility: gputypes.ShaderStageVertex, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create histogram_draw bind layout: %w", err)
	}
	p.histo.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "histogram_draw_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create histogram_draw pipeline layout: %w", err)
	}
	p.histo.pipeLayout = pipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	targets := []gputypes.ColorTargetState{
		{
			Format:    gputypes.TextureFormatBGRA8Unorm,
			Blend:     &premulBlend,
			WriteMask: gputypes.ColorWriteMaskAll,
		},
	}

	linePipe, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "histogram_draw_line",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_line",
			Buffers:    histoVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets:    targets,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyLineStrip,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return fmt.Errorf("create histogram_draw line pipeline: %w", err)
	}
	p.histo.linePipe = linePipe

	// Points render as instanced quads; vertex positions come from the
	// histogram buffer, so no vertex buffer is bound.
	pointPipe, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "histogram_draw_point",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_point",
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets:    targets,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return fmt.Errorf("create histogram_draw point pipeline: %w", err)
	}
	p.histo.pointPipe = pointPipe

	p.histo.frameBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "histogram_draw_frame_uniforms",
		Size:  histoFrameUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create histogram_draw frame uniforms: %w", err)
	}
	p.histo.gammaBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "histogram_draw_gamma_uniforms",
		Size:  histoGammaUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create histogram_draw gamma uniforms: %w", err)
	}
	return nil
}

// destroy releases every program object in reverse creation order. Safe on
// partially built sets.
func (p *programs) destroy(device hal.Device) {
	if device == nil {
		return
	}
	destroyBuf := func(b *hal.Buffer) {
		if *b != nil {
			device.DestroyBuffer(*b)
			*b = nil
		}
	}

	destroyBuf(&p.histo.gammaBuf)
	destroyBuf(&p.histo.frameBuf)
	if p.histo.pointPipe != nil {
		device.DestroyRenderPipeline(p.histo.pointPipe)
		p.histo.pointPipe = nil
	}
	if p.histo.linePipe != nil {
		device.DestroyRenderPipeline(p.histo.linePipe)
		p.histo.linePipe = nil
	}
	if p.histo.pipeLayout != nil {
		device.DestroyPipelineLayout(p.histo.pipeLayout)
		p.histo.pipeLayout = nil
	}
	if p.histo.bindLayout != nil {
		device.DestroyBindGroupLayout(p.histo.bindLayout)
		p.histo.bindLayout = nil
	}
	if p.histo.shader != nil {
		device.DestroyShaderModule(p.histo.shader)
		p.histo.shader = nil
	}

	destroyBuf(&p.image.scratchHighlight)
	destroyBuf(&p.image.quadVerts)
	destroyBuf(&p.image.shadeBuf)
	destroyBuf(&p.image.frameBuf)
	for i := range p.image.pipelines {
		if p.image.pipelines[i] != nil {
			device.DestroyRenderPipeline(p.image.pipelines[i])
			p.image.pipelines[i] = nil
		}
	}
	if p.image.pipeLayout != nil {
		device.DestroyPipelineLayout(p.image.pipeLayout)
		p.image.pipeLayout = nil
	}
	if p.image.bindLayout != nil {
		device.DestroyBindGroupLayout(p.image.bindLayout)
		p.image.bindLayout = nil
	}
	if p.image.shader != nil {
		device.DestroyShaderModule(p.image.shader)
		p.image.shader = nil
	}

	for _, cp := range []*computeProgram{&p.consolidate, &p.blockHist} {
		destroyBuf(&cp.uniformBuf)
		if cp.pipeline != nil {
			device.DestroyComputePipeline(cp.pipeline)
			cp.pipeline = nil
		}
		if cp.pipeLayout != nil {
			device.DestroyPipelineLayout(cp.pipeLayout)
			cp.pipeLayout = nil
		}
		if cp.bindLayout != nil {
			device.DestroyBindGroupLayout(cp.bindLayout)
			cp.bindLayout = nil
		}
		if cp.shader != nil {
			device.DestroyShaderModule(cp.shader)
			cp.shader = nil
		}
	}
}

func imageVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: 16,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // uv
			},
		},
	}
}

func histoVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: 4,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32, Offset: 0, ShaderLocation: 0}, // bin index
			},
		},
	}
}

// quadVertexData returns the unit quad as two triangles, interleaved
// position and uv. Row 0 of the image maps to the top edge of the quad.
func quadVertexData() []byte {
	verts := []float32{
		-1, 1, 0, 0,
		1, 1, 1, 0,
		1, -1, 1, 1,
		-1, 1, 0, 0,
		1, -1, 1, 1,
		-1, -1, 0, 1,
	}
	out := make([]byte, len(verts)*4)
	for i, v := range verts {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
