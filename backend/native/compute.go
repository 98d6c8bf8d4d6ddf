package native

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/scopeview/gpucore"
)

// DispatchBlockHistogram runs the first histogram pass: a
// BlockGridDim × BlockGridDim grid of goroutines, one per workgroup, each
// covering LocalInvocationDim × LocalInvocationDim pixel regions and
// atomically incrementing its block's bins. The geometry matches the GPU
// dispatch exactly, including the clamped trailing regions.
func (a *Adapter) DispatchBlockHistogram(cmd *gpucore.BlockHistogramCmd) error {
	img, err := a.texture(cmd.Image, "block histogram")
	if err != nil {
		return err
	}
	blocks, err := a.buffer(cmd.Blocks, "block histogram")
	if err != nil {
		return err
	}
	if cmd.BinCount <= 0 {
		return fmt.Errorf("native: block histogram: invalid bin count %d", cmd.BinCount)
	}
	if want := gpucore.BlockCount * cmd.BinCount; len(blocks.words) < want {
		return fmt.Errorf("native: block histogram: block buffer has %d words, want %d", len(blocks.words), want)
	}

	width, height := cmd.ImageSize[0], cmd.ImageSize[1]
	regionW, regionH := cmd.RegionSize[0], cmd.RegionSize[1]
	binCount := uint64(cmd.BinCount)

	var wg sync.WaitGroup
	for gy := 0; gy < gpucore.BlockGridDim; gy++ {
		for gx := 0; gx < gpucore.BlockGridDim; gx++ {
			wg.Add(1)
			go func(gx, gy int) {
				defer wg.Done()
				block := blocks.words[(gy*gpucore.BlockGridDim+gx)*cmd.BinCount:]
				for ly := 0; ly < gpucore.LocalInvocationDim; ly++ {
					for lx := 0; lx < gpucore.LocalInvocationDim; lx++ {
						x0 := (gx*gpucore.LocalInvocationDim + lx) * regionW
						y0 := (gy*gpucore.LocalInvocationDim + ly) * regionH
						for y := y0; y < y0+regionH && y < height; y++ {
							row := img.texels[y*width:]
							for x := x0; x < x0+regionW && x < width; x++ {
								bin := uint64(row[x]) * binCount / 65536
								atomic.AddUint32(&block[bin], 1)
							}
						}
					}
				}
			}(gx, gy)
		}
	}
	wg.Wait()
	return nil
}

// DispatchConsolidate runs the second histogram pass: each workgroup
// goroutine folds its own block into the 1D histogram, each invocation
// handling InvocationBinCount bins. The extremum buffer tracks the running
// per-bin totals returned by the atomic adds; the final add on a bin returns
// its true total, so the tracked maximum is exact once the pass completes.
func (a *Adapter) DispatchConsolidate(cmd *gpucore.ConsolidateCmd) error {
	blocks, err := a.buffer(cmd.Blocks, "consolidate")
	if err != nil {
		return err
	}
	hist, err := a.buffer(cmd.Histogram, "consolidate")
	if err != nil {
		return err
	}
	ext, err := a.buffer(cmd.Extrema, "consolidate")
	if err != nil {
		return err
	}
	if cmd.BinCount <= 0 || cmd.InvocationBinCount <= 0 {
		return fmt.Errorf("native: consolidate: invalid bin counts %d/%d", cmd.BinCount, cmd.InvocationBinCount)
	}
	if len(hist.words) < cmd.BinCount {
		return fmt.Errorf("native: consolidate: histogram buffer has %d words, want %d", len(hist.words), cmd.BinCount)
	}
	if len(ext.words) < 2 {
		return fmt.Errorf("native: consolidate: extrema buffer has %d words, want 2", len(ext.words))
	}

	invocations := gpucore.LocalInvocationDim * gpucore.LocalInvocationDim
	var wg sync.WaitGroup
	for gy := 0; gy < gpucore.BlockGridDim; gy++ {
		for gx := 0; gx < gpucore.BlockGridDim; gx++ {
			wg.Add(1)
			go func(gx, gy int) {
				defer wg.Done()
				block := blocks.words[(gy*gpucore.BlockGridDim+gx)*cmd.BinCount:]
				for li := 0; li < invocations; li++ {
					firstBin := li * cmd.InvocationBinCount
					for bin := firstBin; bin < firstBin+cmd.InvocationBinCount && bin < cmd.BinCount; bin++ {
						total := atomic.AddUint32(&hist.words[bin], block[bin])
						atomicMin(&ext.words[0], total)
						atomicMax(&ext.words[1], total)
					}
				}
			}(gx, gy)
		}
	}
	wg.Wait()
	return nil
}

// atomicMin lowers *p to v if v is smaller.
func atomicMin(p *uint32, v uint32) {
	for {
		old := atomic.LoadUint32(p)
		if v >= old || atomic.CompareAndSwapUint32(p, old, v) {
			return
		}
	}
}

// atomicMax raises *p to v if v is larger.
func atomicMax(p *uint32, v uint32) {
	for {
		old := atomic.LoadUint32(p)
		if v <= old || atomic.CompareAndSwapUint32(p, old, v) {
			return
		}
	}
}
