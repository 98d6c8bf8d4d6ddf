package scopeview

import "errors"

// Package-level sentinel errors. Wrapped errors can be tested with
// errors.Is.
var (
	// ErrAlreadyInitialized is returned by a second Init call.
	ErrAlreadyInitialized = errors.New("scopeview: already initialized")

	// ErrNotInitialized is returned when an operation needs a running
	// renderer.
	ErrNotInitialized = errors.New("scopeview: not initialized")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("scopeview: closed")

	// ErrUnknownSurface is returned for surface IDs outside the known set.
	ErrUnknownSurface = errors.New("scopeview: unknown surface")

	// ErrInvalidImageSize is returned when a non-empty image has
	// non-positive dimensions or a sample count that does not match them.
	ErrInvalidImageSize = errors.New("scopeview: invalid image size")

	// ErrInvalidBinCount is returned for non-positive histogram bin counts.
	ErrInvalidBinCount = errors.New("scopeview: invalid bin count")
)
