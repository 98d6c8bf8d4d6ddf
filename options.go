package scopeview

// Option configures a Renderer at construction time.
type Option func(*Renderer)

// WithBinCount sets the initial histogram bin count. Non-positive values
// are ignored and the default stands.
func WithBinCount(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.binCount = n
		}
	}
}

// WithClearColor sets a surface's initial background color.
func WithClearColor(s SurfaceID, c RGBA) Option {
	return func(r *Renderer) {
		if s.Valid() {
			r.surf[s].clear = c
		}
	}
}

// WithImagePanel sets the initial image panel state.
func WithImagePanel(p ImagePanelState) Option {
	return func(r *Renderer) {
		r.imgPanel = p
	}
}

// WithHistogramPanel sets the initial histogram panel state.
func WithHistogramPanel(p HistogramPanelState) Option {
	return func(r *Renderer) {
		r.histPanel = p
	}
}
