package native

import "errors"

var (
	errAlreadyInitialized = errors.New("already initialized")
	errUnknownResource    = errors.New("unknown resource")
	errUnknownSurface     = errors.New("unknown surface")
	errNoSurface          = errors.New("surface not configured")
)
