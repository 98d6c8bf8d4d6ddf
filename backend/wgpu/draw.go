package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/scopeview"
	"github.com/gogpu/scopeview/gpucore"
)

func clearValue(c [4]float32) gputypes.Color {
	return gputypes.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
}

// DrawImage renders the image surface. An invalid Image ID produces a
// clear-only pass. The shade uniforms (min/max/gamma) are uploaded only when
// they changed since the previous draw.
func (a *Adapter) DrawImage(cmd *gpucore.ImageDrawCmd) error {
	target := a.surfaces[gpucore.SurfaceImage]
	if target == nil {
		return fmt.Errorf("wgpu: draw image: surface not configured")
	}
	if cmd.Image == gpucore.InvalidID {
		return a.clearOnly(target, cmd.ClearColor, "image_clear")
	}
	img, ok := a.textures[cmd.Image]
	if !ok {
		return fmt.Errorf("wgpu: draw image: unknown texture %d", cmd.Image)
	}

	frame := make([]byte, imageFrameUniformSize)
	for i, v := range cmd.PMV {
		putF32(frame, i, v)
	}
	putU32(frame, 16, uint32(cmd.ImageSize[0]))
	putU32(frame, 17, uint32(cmd.ImageSize[1]))
	if cmd.Filter == gpucore.FilterLinear {
		putU32(frame, 18, 1)
	}
	a.queue.WriteBuffer(a.progs.image.frameBuf, 0, frame)

	shade := make([]byte, imageShadeUniformSize)
	putF32(shade, 0, cmd.Min)
	putF32(shade, 1, cmd.Max)
	putF32(shade, 2, cmd.Gamma)
	if a.progs.image.shade.update(shade) {
		a.queue.WriteBuffer(a.progs.image.shadeBuf, 0, shade)
		scopeview.Logger().Debug("image shade uniforms uploaded",
			"min", cmd.Min, "max", cmd.Max, "gamma", cmd.Gamma)
	}

	highlight := a.progs.image.scratchHighlight
	if cmd.Variant.Highlighted() {
		hl, ok := a.buffers[cmd.Highlight]
		if !ok {
			return fmt.Errorf("wgpu: draw image: unknown highlight buffer %d", cmd.Highlight)
		}
		highlight = hl.buf
	}

	bg, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "image_draw_bind",
		Layout: a.progs.image.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: a.progs.image.frameBuf.NativeHandle(), Offset: 0, Size: imageFrameUniformSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: a.progs.image.shadeBuf.NativeHandle(), Offset: 0, Size: imageShadeUniformSize}},
			{Binding: 2, Resource: gputypes.TextureViewBinding{TextureView: img.view.NativeHandle()}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: highlight.NativeHandle(), Offset: 0, Size: gpucore.HighlightBufferSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: draw image: create bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(bg)

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "image_draw"})
	if err != nil {
		return fmt.Errorf("wgpu: draw image: create encoder: %w", err)
	}
	if err := encoder.BeginEncoding("image_draw"); err != nil {
		return fmt.Errorf("wgpu: draw image: begin encoding: %w", err)
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "image_draw",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       target.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: clearValue(cmd.ClearColor),
			},
		},
	})
	rp.SetPipeline(a.progs.image.pipelines[cmd.Variant])
	rp.SetBindGroup(0, bg, nil)
	rp.SetVertexBuffer(0, a.progs.image.quadVerts, 0)
	rp.Draw(6, 1, 0, 0)
	rp.End()
	return a.submitAndWait(encoder, "image_draw")
}

// DrawHistogram renders the histogram surface: one pass drawing the line
// strip from the bin-index vertex buffer, then the instanced point quads.
// The display gamma uniform is uploaded only when it changed.
func (a *Adapter) DrawHistogram(cmd *gpucore.HistogramDrawCmd) error {
	target := a.surfaces[gpucore.SurfaceHistogram]
	if target == nil {
		return fmt.Errorf("wgpu: draw histogram: surface not configured")
	}
	if cmd.Histogram == gpucore.InvalidID {
		return a.clearOnly(target, cmd.ClearColor, "histogram_clear")
	}
	hist, ok := a.buffers[cmd.Histogram]
	if !ok {
		return fmt.Errorf("wgpu: draw histogram: unknown buffer %d", cmd.Histogram)
	}
	verts, ok := a.buffers[cmd.Vertices]
	if !ok {
		return fmt.Errorf("wgpu: draw histogram: unknown vertex buffer %d", cmd.Vertices)
	}

	frame := make([]byte, histoFrameUniformSize)
	for i, v := range cmd.PMV {
		putF32(frame, i, v)
	}
	putU32(frame, 16, uint32(cmd.BinCount))
	putU32(frame, 17, cmd.BinScale)
	putF32(frame, 18, float32(target.width))
	putF32(frame, 19, float32(target.height))
	a.queue.WriteBuffer(a.progs.histo.frameBuf, 0, frame)

	gamma := make([]byte, histoGammaUniformSize)
	putF32(gamma, 0, cmd.Gamma)
	if a.progs.histo.gamma.update(gamma) {
		a.queue.WriteBuffer(a.progs.histo.gammaBuf, 0, gamma)
		scopeview.Logger().Debug("histogram gamma uniform uploaded", "gamma", cmd.Gamma)
	}

	bg, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "histogram_draw_bind",
		Layout: a.progs.histo.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: a.progs.histo.frameBuf.NativeHandle(), Offset: 0, Size: histoFrameUniformSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: a.progs.histo.gammaBuf.NativeHandle(), Offset: 0, Size: histoGammaUniformSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: hist.buf.NativeHandle(), Offset: 0, Size: uint64(hist.size)}},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: draw histogram: create bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(bg)

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "histogram_draw"})
	if err != nil {
		return fmt.Errorf("wgpu: draw histogram: create encoder: %w", err)
	}
	if err := encoder.BeginEncoding("histogram_draw"); err != nil {
		return fmt.Errorf("wgpu: draw histogram: begin encoding: %w", err)
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "histogram_draw",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       target.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: clearValue(cmd.ClearColor),
			},
		},
	})
	rp.SetPipeline(a.progs.histo.linePipe)
	rp.SetBindGroup(0, bg, nil)
	rp.SetVertexBuffer(0, verts.buf, 0)
	rp.Draw(uint32(cmd.BinCount), 1, 0, 0)

	rp.SetPipeline(a.progs.histo.pointPipe)
	rp.SetBindGroup(0, bg, nil)
	rp.Draw(6, uint32(cmd.BinCount), 0, 0)
	rp.End()
	return a.submitAndWait(encoder, "histogram_draw")
}

// clearOnly encodes a render pass that clears the target and draws nothing.
func (a *Adapter) clearOnly(target *surfaceTarget, color [4]float32, label string) error {
	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("wgpu: %s: create encoder: %w", label, err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("wgpu: %s: begin encoding: %w", label, err)
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       target.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: clearValue(color),
			},
		},
	})
	rp.End()
	return a.submitAndWait(encoder, label)
}
