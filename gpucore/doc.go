// Package gpucore defines the adapter contract between the scopeview
// rendering coordinator and its GPU backends.
//
// The coordinator never talks to a GPU API directly. It drives an Adapter,
// which owns the device and all backend resources behind opaque IDs:
//
//	┌──────────────────────────────┐
//	│    scopeview (coordinator)   │
//	│  histogram compute, draws,   │
//	│  resource lifecycle          │
//	└──────────────┬───────────────┘
//	               │ gpucore.Adapter
//	      ┌────────┴────────┐
//	      ▼                 ▼
//	 backend/native    backend/wgpu
//	 (goroutines +     (wgpu-hal,
//	  sync/atomic)      WGSL shaders)
//
// backend/native executes the same dispatch geometry on the CPU with real
// concurrency, which keeps every pipeline testable without GPU hardware.
// backend/wgpu runs the pipelines on a wgpu-hal device.
package gpucore
