package native

import (
	"github.com/gogpu/scopeview/backend"
	"github.com/gogpu/scopeview/gpucore"
)

// init registers the native backend on package import:
//
//	import _ "github.com/gogpu/scopeview/backend/native"
func init() {
	backend.Register(backend.Native, func() gpucore.Adapter {
		return New()
	})
}
