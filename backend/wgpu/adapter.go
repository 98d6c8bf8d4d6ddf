package wgpu

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/scopeview"
	"github.com/gogpu/scopeview/gpucore"
)

// ErrNoGPU indicates that no usable GPU adapter could be opened.
var ErrNoGPU = errors.New("wgpu: no GPU available")

var errAlreadyInitialized = errors.New("wgpu: already initialized")

// Adapter implements gpucore.Adapter over wgpu/hal.
type Adapter struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	externalDevice bool
	initialized    bool

	nextID   atomic.Uint64
	buffers  map[gpucore.BufferID]*bufferEntry
	textures map[gpucore.TextureID]*textureEntry

	surfaces [gpucore.NumSurfaces]*surfaceTarget

	progs programs
}

type bufferEntry struct {
	buf  hal.Buffer
	size int
}

type textureEntry struct {
	tex           hal.Texture
	view          hal.TextureView
	width, height int
}

type surfaceTarget struct {
	tex           hal.Texture
	view          hal.TextureView
	width, height int
}

// New creates an uninitialized GPU adapter. Call Init from the goroutine
// that will issue all later calls.
func New() *Adapter {
	return &Adapter{
		buffers:  make(map[gpucore.BufferID]*bufferEntry),
		textures: make(map[gpucore.TextureID]*textureEntry),
	}
}

// SetDeviceProvider switches the adapter to a shared GPU device before Init.
// The provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue, the same seam gogpu exposes.
func (a *Adapter) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}
	if a.initialized {
		return errAlreadyInitialized
	}
	a.device = device
	a.queue = queue
	a.externalDevice = true
	return nil
}

// Init opens the device (unless one was shared) and builds the four shader
// programs. A second call fails.
func (a *Adapter) Init() error {
	if a.initialized {
		return errAlreadyInitialized
	}
	if !a.externalDevice {
		if err := a.openDevice(); err != nil {
			return err
		}
	}
	if err := a.progs.create(a.device, a.queue); err != nil {
		a.closeDevice()
		return fmt.Errorf("wgpu: create programs: %w", err)
	}
	a.nextID.Store(gpucore.InvalidID)
	a.initialized = true
	scopeview.Logger().Info("GPU adapter initialized", "backend", a.Name(), "shared", a.externalDevice)
	return nil
}

func (a *Adapter) openDevice() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("%w: vulkan backend not available", ErrNoGPU)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("%w: create instance: %w", ErrNoGPU, err)
	}
	a.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		a.closeDevice()
		return fmt.Errorf("%w: no adapters", ErrNoGPU)
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		a.closeDevice()
		return fmt.Errorf("%w: open device: %w", ErrNoGPU, err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	scopeview.Logger().Debug("GPU device opened", "name", selected.Info.Name)
	return nil
}

func (a *Adapter) closeDevice() {
	if a.externalDevice {
		a.device = nil
		a.queue = nil
		return
	}
	if a.device != nil {
		a.device.Destroy()
		a.device = nil
	}
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}
	a.queue = nil
}

// Close destroys programs, surfaces, remaining resources, and (when owned)
// the device. Idempotent.
func (a *Adapter) Close() error {
	if !a.initialized {
		return nil
	}
	for s := range a.surfaces {
		a.destroySurface(gpucore.SurfaceID(s))
	}
	for id, t := range a.textures {
		a.device.DestroyTextureView(t.view)
		a.device.DestroyTexture(t.tex)
		delete(a.textures, id)
	}
	for id, b := range a.buffers {
		a.device.DestroyBuffer(b.buf)
		delete(a.buffers, id)
	}
	a.progs.destroy(a.device)
	a.closeDevice()
	a.initialized = false
	a.externalDevice = false
	return nil
}

// Name identifies the backend for logging.
func (a *Adapter) Name() string { return "wgpu" }

// submitAndWait ends encoding, submits the command buffer, and blocks until
// the GPU has executed it. The HAL fences submissions internally; WaitIdle
// plus the completed-index check is the portable wait.
func (a *Adapter) submitAndWait(encoder hal.CommandEncoder, label string) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: %s: end encoding: %w", label, err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	idx, err := a.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("wgpu: %s: submit: %w", label, err)
	}
	if err := a.device.WaitIdle(); err != nil {
		return fmt.Errorf("wgpu: %s: wait idle: %w", label, err)
	}
	if done := a.queue.PollCompleted(); done < idx {
		return fmt.Errorf("wgpu: %s: submission %d not completed (latest %d)", label, idx, done)
	}
	return nil
}
