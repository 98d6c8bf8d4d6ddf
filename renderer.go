package scopeview

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/gogpu/scopeview/gpucore"
)

// DefaultBinCount is the histogram resolution used unless WithBinCount
// overrides it.
const DefaultBinCount = 2048

type msgKind int

const (
	msgService msgKind = iota
	msgNewImage
	msgBinCount
	msgSync
	msgStop
)

type message struct {
	kind     msgKind
	surface  SurfaceID
	image    *imageState
	binCount int
	sync     chan struct{}
	reply    chan error
}

// Renderer coordinates all rendering for the two surfaces. One goroutine,
// started by Init and pinned to its OS thread for the GPU context's sake,
// owns every adapter call; public methods communicate with it through a
// message channel and one mutex over the shared state.
//
// Redundant RequestUpdate calls for a surface coalesce: the first sets the
// surface's pending flag and enqueues a service message, later ones return
// immediately until that message has been handled.
type Renderer struct {
	adapter gpucore.Adapter

	mu         sync.Mutex
	initCalled bool
	started    bool
	closed     bool

	image     *imageState
	binCount  int
	histData  []uint32
	histMax   uint32
	pending   [gpucore.NumSurfaces]bool
	surf      [gpucore.NumSurfaces]surfaceState
	imgPanel  ImagePanelState
	histPanel HistogramPanelState

	extremaGen   uint64
	extremaFut   *extremaFuture
	extrema      Extrema
	extremaValid bool

	hlActual      [2]int
	hlActualValid bool

	// Render-goroutine-only state; no lock.
	res         resourceSet
	lastWanted  [2]float32
	wantedValid bool

	msgs chan message
	done chan struct{}
}

// New creates a renderer over the given backend adapter. Call Init before
// anything else.
func New(adapter gpucore.Adapter, opts ...Option) *Renderer {
	r := &Renderer{
		adapter:   adapter,
		binCount:  DefaultBinCount,
		imgPanel:  defaultImagePanel(),
		histPanel: defaultHistogramPanel(),
		msgs:      make(chan message, 128),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.histData = make([]uint32, r.binCount)
	return r
}

// Init starts the coordinator goroutine and initializes the backend on it.
// It returns once the backend is ready. A second call fails with
// ErrAlreadyInitialized regardless of how the first one ended.
func (r *Renderer) Init() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.initCalled {
		r.mu.Unlock()
		return ErrAlreadyInitialized
	}
	r.initCalled = true
	r.mu.Unlock()

	ready := make(chan error, 1)
	go r.run(ready)
	if err := <-ready; err != nil {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		return err
	}
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
	return nil
}

// Close stops the coordinator, releasing all GPU resources. Idempotent.
// No other method may be called concurrently with or after Close.
func (r *Renderer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	started := r.started
	r.mu.Unlock()
	if !started {
		return nil
	}
	r.msgs <- message{kind: msgStop}
	<-r.done
	return nil
}

func (r *Renderer) run(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := r.adapter.Init(); err != nil {
		ready <- fmt.Errorf("scopeview: init %s adapter: %w", r.adapter.Name(), err)
		close(r.done)
		return
	}
	ready <- nil
	slogger().Info("renderer started", "backend", r.adapter.Name())

	for msg := range r.msgs {
		switch msg.kind {
		case msgService:
			r.serviceUpdate(msg.surface)
		case msgNewImage:
			msg.reply <- r.handleNewImage(msg.image)
		case msgBinCount:
			msg.reply <- r.handleBinCount(msg.binCount)
		case msgSync:
			close(msg.sync)
		case msgStop:
			r.res.releaseAll(r.adapter)
			if err := r.adapter.Close(); err != nil {
				slogger().Warn("adapter close failed", "err", err)
			}
			slogger().Info("renderer stopped")
			close(r.done)
			return
		}
	}
}

// checkRunning reports the common precondition for mutating methods.
// Callers hold r.mu.
func (r *Renderer) checkRunning() error {
	if r.closed {
		return ErrClosed
	}
	if !r.started {
		return ErrNotInitialized
	}
	return nil
}

// RequestUpdate schedules a redraw of the surface. Requests made while one
// is already pending coalesce into a single draw. Requests for a surface
// with no view size yet are dropped.
func (r *Renderer) RequestUpdate(s SurfaceID) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownSurface, s)
	}
	r.mu.Lock()
	if err := r.checkRunning(); err != nil {
		r.mu.Unlock()
		return err
	}
	if r.pending[s] || r.surf[s].viewW <= 0 || r.surf[s].viewH <= 0 {
		r.mu.Unlock()
		return nil
	}
	r.pending[s] = true
	r.mu.Unlock()
	r.msgs <- message{kind: msgService, surface: s}
	return nil
}

// SetImage replaces the current image. Empty samples clear it. The slice is
// copied; the caller keeps ownership of its own. A CPU extrema scan is
// launched immediately, superseding any scan still in flight; clearing the
// image invalidates cached and in-flight extrema.
//
// The call returns after the coordinator has installed the image, uploaded
// it, and recomputed the histogram, so Image and Histogram observe the new
// state as soon as SetImage returns.
func (r *Renderer) SetImage(samples []uint16, width, height int, filter FilterMode) error {
	img, err := newImageState(samples, width, height, filter)
	if err != nil {
		return err
	}
	r.mu.Lock()
	if err := r.checkRunning(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.extremaGen++
	r.extremaValid = false
	if img != nil {
		r.extremaFut = launchExtremaScan(img.samples, r.extremaGen)
	} else {
		r.extremaFut = nil
	}
	r.mu.Unlock()
	reply := make(chan error, 1)
	r.msgs <- message{kind: msgNewImage, image: img, reply: reply}
	return <-reply
}

// SetHistogramBinCount changes the histogram resolution. Setting the
// current value is a no-op; otherwise the histogram resources are rebuilt
// and, if an image is present, recomputed and redrawn before the call
// returns.
func (r *Renderer) SetHistogramBinCount(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBinCount, n)
	}
	r.mu.Lock()
	if err := r.checkRunning(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()
	reply := make(chan error, 1)
	r.msgs <- message{kind: msgBinCount, binCount: n, reply: reply}
	return <-reply
}

// SetViewSize records the pixel size of a surface's view. The surface's
// render target is (re)configured on its next draw, and only when the size
// actually changed.
func (r *Renderer) SetViewSize(s SurfaceID, width, height int) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownSurface, s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surf[s].viewW = width
	r.surf[s].viewH = height
	return nil
}

// SetClearColor sets a surface's background color.
func (r *Renderer) SetClearColor(s SurfaceID, c RGBA) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownSurface, s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surf[s].clear = c
	return nil
}

// SetImagePanel snapshots the image surface's display state.
func (r *Renderer) SetImagePanel(p ImagePanelState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imgPanel = p
}

// SetHistogramPanel snapshots the histogram surface's display state.
func (r *Renderer) SetHistogramPanel(p HistogramPanelState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histPanel = p
}

// Histogram lends the consolidated bin array to fn under the renderer
// lock. fn must not retain the slice or call back into the renderer.
func (r *Renderer) Histogram(fn func(bins []uint32)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.histData)
}

// HistogramMax returns the maximum consolidated bin count from the latest
// histogram computation.
func (r *Renderer) HistogramMax() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.histMax
}

// Image returns a copy of the current image samples with its dimensions,
// or nil when no image is set.
func (r *Renderer) Image() ([]uint16, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.image == nil {
		return nil, 0, 0
	}
	out := make([]uint16, len(r.image.samples))
	copy(out, r.image.samples)
	return out, r.image.width, r.image.height
}

// Extrema returns the image's sample extrema. When a prefetch is still in
// flight it blocks until the scan finishes; with no image set it reports
// false.
func (r *Renderer) Extrema() (Extrema, bool) {
	return r.waitExtrema()
}

// HighlightedPixel returns the snap-corrected coordinate of the pixel the
// last draw highlighted.
func (r *Renderer) HighlightedPixel() (x, y int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hlActual[0], r.hlActual[1], r.hlActualValid
}

// waitExtrema resolves the current extrema, blocking on the in-flight scan
// when there is one. A scan superseded while we waited is discarded in
// favor of whatever is current by then.
func (r *Renderer) waitExtrema() (Extrema, bool) {
	r.mu.Lock()
	if r.extremaValid {
		ext := r.extrema
		r.mu.Unlock()
		return ext, true
	}
	fut := r.extremaFut
	r.mu.Unlock()
	if fut == nil {
		return Extrema{}, false
	}
	<-fut.done
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.extremaFut == fut {
		r.extrema = fut.ext
		r.extremaValid = true
	}
	return r.extrema, r.extremaValid
}

// drain blocks until every message enqueued before it has been handled.
func (r *Renderer) drain() {
	ch := make(chan struct{})
	r.msgs <- message{kind: msgSync, sync: ch}
	<-ch
}
