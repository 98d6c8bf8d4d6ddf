package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/block_histogram.wgsl
var blockHistogramWGSL string

//go:embed shaders/histogram_consolidate.wgsl
var histogramConsolidateWGSL string

//go:embed shaders/image_draw.wgsl
var imageDrawWGSL string

//go:embed shaders/histogram_draw.wgsl
var histogramDrawWGSL string

// compileShader validates WGSL through naga and builds a shader module from
// the resulting SPIR-V.
func compileShader(device hal.Device, label, wgsl string) (hal.ShaderModule, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", label, err)
	}
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s module: %w", label, err)
	}
	return module, nil
}
