package scopeview

// Extrema is the minimum and maximum sample value of an image.
type Extrema struct {
	Min, Max uint16
}

// extremaFuture is one in-flight CPU extrema scan. The scanner stores its
// result and closes done; cancellation is by replacement: the coordinator
// only ever waits on the current future, so a superseded scan finishes
// against its own defensive copy and is never read.
type extremaFuture struct {
	gen  uint64
	ext  Extrema
	done chan struct{}
}

// launchExtremaScan starts the asynchronous scan over samples, which must
// be owned by the caller's imageState (never externally aliased).
func launchExtremaScan(samples []uint16, gen uint64) *extremaFuture {
	fut := &extremaFuture{gen: gen, done: make(chan struct{})}
	go func() {
		fut.ext = scanExtrema(samples)
		slogger().Debug("image extrema scanned",
			"gen", gen, "min", fut.ext.Min, "max", fut.ext.Max)
		close(fut.done)
	}()
	return fut
}

// scanExtrema is a single pass over the samples. Each sample is tested
// against both bounds: a sample can be the new minimum and the new maximum
// at once, as in a single-element or uniform image.
func scanExtrema(samples []uint16) Extrema {
	ext := Extrema{Min: 65535, Max: 0}
	for _, s := range samples {
		if s < ext.Min {
			ext.Min = s
		}
		if s > ext.Max {
			ext.Max = s
		}
	}
	return ext
}
