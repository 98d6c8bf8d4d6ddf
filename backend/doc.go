// Package backend provides a registry of gpucore.Adapter implementations.
//
// Backends register themselves via init() functions and are selected at
// runtime by name, or by priority through Default:
//
//	import (
//		"github.com/gogpu/scopeview/backend"
//		_ "github.com/gogpu/scopeview/backend/native"
//		_ "github.com/gogpu/scopeview/backend/wgpu"
//	)
//
//	a := backend.Default()          // best available
//	a = backend.Get(backend.Native) // or a specific one
//
// # Available Backends
//
// - "native": pure Go adapter rendering to in-memory pixmaps (always works)
// - "wgpu": GPU adapter over gogpu/wgpu hal
package backend
