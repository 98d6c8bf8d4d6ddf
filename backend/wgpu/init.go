package wgpu

import (
	"github.com/gogpu/scopeview/backend"
	"github.com/gogpu/scopeview/gpucore"
)

// init registers the wgpu backend on package import:
//
//	import _ "github.com/gogpu/scopeview/backend/wgpu"
func init() {
	backend.Register(backend.WGPU, func() gpucore.Adapter {
		return New()
	})
}
