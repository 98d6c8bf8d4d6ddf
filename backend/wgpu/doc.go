// Package wgpu provides the hardware gpucore.Adapter over wgpu/hal.
//
// The adapter owns a Vulkan device (or a shared one handed in through
// SetDeviceProvider), the four shader programs, and the offscreen BGRA8
// render targets backing the two surfaces. Shaders are written in WGSL,
// validated and compiled to SPIR-V through naga at initialization.
package wgpu
