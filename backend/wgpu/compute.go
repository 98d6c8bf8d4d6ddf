package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/scopeview"
	"github.com/gogpu/scopeview/gpucore"
)

func putU32(b []byte, word int, v uint32) {
	binary.LittleEndian.PutUint32(b[word*4:], v)
}

func putF32(b []byte, word int, v float32) {
	binary.LittleEndian.PutUint32(b[word*4:], math.Float32bits(v))
}

// DispatchBlockHistogram encodes and submits the block pass, waiting for the
// fence before returning.
func (a *Adapter) DispatchBlockHistogram(cmd *gpucore.BlockHistogramCmd) error {
	img, ok := a.textures[cmd.Image]
	if !ok {
		return fmt.Errorf("wgpu: block histogram: unknown texture %d", cmd.Image)
	}
	blocks, ok := a.buffers[cmd.Blocks]
	if !ok {
		return fmt.Errorf("wgpu: block histogram: unknown buffer %d", cmd.Blocks)
	}

	uniforms := make([]byte, blockHistUniformSize)
	putU32(uniforms, 0, uint32(cmd.BinCount))
	putU32(uniforms, 1, uint32(cmd.RegionSize[0]))
	putU32(uniforms, 2, uint32(cmd.RegionSize[1]))
	putU32(uniforms, 3, uint32(cmd.ImageSize[0]))
	putU32(uniforms, 4, uint32(cmd.ImageSize[1]))
	a.queue.WriteBuffer(a.progs.blockHist.uniformBuf, 0, uniforms)

	bg, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "block_histogram_bind",
		Layout: a.progs.blockHist.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: a.progs.blockHist.uniformBuf.NativeHandle(), Offset: 0, Size: blockHistUniformSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: img.view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: blocks.buf.NativeHandle(), Offset: 0, Size: uint64(blocks.size)}},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: block histogram: create bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(bg)

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "block_histogram"})
	if err != nil {
		return fmt.Errorf("wgpu: block histogram: create encoder: %w", err)
	}
	if err := encoder.BeginEncoding("block_histogram"); err != nil {
		return fmt.Errorf("wgpu: block histogram: begin encoding: %w", err)
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "block_histogram"})
	pass.SetPipeline(a.progs.blockHist.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(gpucore.BlockGridDim, gpucore.BlockGridDim, 1)
	pass.End()
	if err := a.submitAndWait(encoder, "block_histogram"); err != nil {
		return err
	}
	scopeview.Logger().Debug("block histogram dispatched",
		"bins", cmd.BinCount, "image", fmt.Sprintf("%dx%d", cmd.ImageSize[0], cmd.ImageSize[1]))
	return nil
}

// DispatchConsolidate encodes and submits the consolidation pass, waiting
// for the fence before returning.
func (a *Adapter) DispatchConsolidate(cmd *gpucore.ConsolidateCmd) error {
	blocks, ok := a.buffers[cmd.Blocks]
	if !ok {
		return fmt.Errorf("wgpu: consolidate: unknown buffer %d", cmd.Blocks)
	}
	hist, ok := a.buffers[cmd.Histogram]
	if !ok {
		return fmt.Errorf("wgpu: consolidate: unknown buffer %d", cmd.Histogram)
	}
	ext, ok := a.buffers[cmd.Extrema]
	if !ok {
		return fmt.Errorf("wgpu: consolidate: unknown buffer %d", cmd.Extrema)
	}

	uniforms := make([]byte, consolidateUniformSize)
	putU32(uniforms, 0, uint32(cmd.BinCount))
	putU32(uniforms, 1, uint32(cmd.InvocationBinCount))
	a.queue.WriteBuffer(a.progs.consolidate.uniformBuf, 0, uniforms)

	bg, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "histogram_consolidate_bind",
		Layout: a.progs.consolidate.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: a.progs.consolidate.uniformBuf.NativeHandle(), Offset: 0, Size: consolidateUniformSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: blocks.buf.NativeHandle(), Offset: 0, Size: uint64(blocks.size)}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: hist.buf.NativeHandle(), Offset: 0, Size: uint64(hist.size)}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: ext.buf.NativeHandle(), Offset: 0, Size: uint64(ext.size)}},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: consolidate: create bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(bg)

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "histogram_consolidate"})
	if err != nil {
		return fmt.Errorf("wgpu: consolidate: create encoder: %w", err)
	}
	if err := encoder.BeginEncoding("histogram_consolidate"); err != nil {
		return fmt.Errorf("wgpu: consolidate: begin encoding: %w", err)
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "histogram_consolidate"})
	pass.SetPipeline(a.progs.consolidate.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(gpucore.BlockGridDim, gpucore.BlockGridDim, 1)
	pass.End()
	return a.submitAndWait(encoder, "histogram_consolidate")
}
