package backend

import (
	"errors"
	"sync"

	"github.com/gogpu/scopeview/gpucore"
)

// Backend names.
const (
	// Native is the pure Go adapter.
	Native = "native"

	// WGPU is the GPU adapter over gogpu/wgpu hal.
	WGPU = "wgpu"
)

// ErrNotAvailable is returned when no requested backend is registered.
var ErrNotAvailable = errors.New("backend: not available")

// Factory creates a new adapter instance.
type Factory func() gpucore.Adapter

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	priority = []string{WGPU, Native}
)

// Register registers an adapter factory with the given name. This is
// typically called from init() functions in backend packages. A factory
// registered under an existing name replaces it.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = f
}

// Unregister removes a backend from the registry. Useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

// IsRegistered reports whether a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get returns a new adapter by backend name, or nil if the name is not
// registered.
func Get(name string) gpucore.Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := factories[name]
	if !ok {
		return nil
	}
	return f()
}

// Default returns a new adapter from the best available backend.
// Returns nil if no backends are registered.
func Default() gpucore.Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, name := range priority {
		if f, ok := factories[name]; ok {
			if a := f(); a != nil {
				return a
			}
		}
	}
	for _, f := range factories {
		if a := f(); a != nil {
			return a
		}
	}
	return nil
}

// MustDefault returns the default adapter or panics.
func MustDefault() gpucore.Adapter {
	a := Default()
	if a == nil {
		panic("backend: no backend available")
	}
	return a
}
