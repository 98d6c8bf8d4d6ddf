package gpucore

// Adapter abstracts a GPU backend for the scopeview coordinator.
//
// All methods are called from the coordinator's render goroutine only, after
// Init and before Close; implementations need no internal locking for that
// call pattern but must tolerate Close racing nothing (the coordinator
// serializes it too). Resource methods return opaque IDs; an ID is live from
// the Create call until the matching Destroy call.
type Adapter interface {
	// Init acquires the device and builds the shader programs. It is
	// called exactly once, on the goroutine that will issue every later
	// call (GPU contexts have thread affinity).
	Init() error

	// Close releases all programs and the device. Destroying still-live
	// resource IDs first is the caller's responsibility.
	Close() error

	// Name identifies the backend for logging.
	Name() string

	// ConfigureSurface sets the pixel size of an output surface, creating
	// or resizing its render target. Both dimensions must be positive.
	ConfigureSurface(s SurfaceID, width, height int) error

	// Present makes the surface's last draw visible to the embedder.
	Present(s SurfaceID) error

	// CreateTexture allocates a width×height texture of the given format.
	CreateTexture(width, height int, format TextureFormat) (TextureID, error)

	// DestroyTexture releases a texture. Unknown IDs are ignored.
	DestroyTexture(id TextureID)

	// WriteTexture uploads tightly packed texel data covering the whole
	// texture.
	WriteTexture(id TextureID, data []byte) error

	// CreateBuffer allocates a zero-filled buffer of size bytes.
	CreateBuffer(size int, usage BufferUsage) (BufferID, error)

	// DestroyBuffer releases a buffer. Unknown IDs are ignored.
	DestroyBuffer(id BufferID)

	// WriteBuffer uploads data at the given byte offset.
	WriteBuffer(id BufferID, offset int, data []byte) error

	// ReadBuffer copies len(dst) bytes from the buffer at the given byte
	// offset into dst, waiting for outstanding GPU work on the buffer.
	ReadBuffer(id BufferID, offset int, dst []byte) error

	// ZeroBuffer clears the whole buffer to zero bytes.
	ZeroBuffer(id BufferID) error

	// DispatchBlockHistogram runs the first histogram pass and waits for
	// completion.
	DispatchBlockHistogram(cmd *BlockHistogramCmd) error

	// DispatchConsolidate runs the second histogram pass and waits for
	// completion.
	DispatchConsolidate(cmd *ConsolidateCmd) error

	// DrawImage renders the image surface.
	DrawImage(cmd *ImageDrawCmd) error

	// DrawHistogram renders the histogram surface.
	DrawHistogram(cmd *HistogramDrawCmd) error
}
