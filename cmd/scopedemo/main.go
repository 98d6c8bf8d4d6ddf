// Command scopedemo renders a synthetic 16-bit image and its histogram
// through the native backend and writes both surfaces as PNGs.
package main

import (
	"flag"
	"image"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"

	"github.com/gogpu/scopeview"
	"github.com/gogpu/scopeview/backend"

	_ "github.com/gogpu/scopeview/backend/native"
	_ "github.com/gogpu/scopeview/backend/wgpu"
)

// snapshotter is the optional adapter capability the demo needs to save
// surfaces to disk. The native backend provides it.
type snapshotter interface {
	Snapshot(s scopeview.SurfaceID) *image.RGBA
}

func main() {
	var (
		backendName = flag.String("backend", backend.Native, "rendering backend")
		width       = flag.Int("width", 512, "synthetic image width")
		height      = flag.Int("height", 512, "synthetic image height")
		bins        = flag.Int("bins", scopeview.DefaultBinCount, "histogram bin count")
		gamma       = flag.Float64("gamma", 1.0, "display gamma")
		imageOut    = flag.String("image", "image.png", "image surface output file")
		histOut     = flag.String("histogram", "histogram.png", "histogram surface output file")
		verbose     = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		scopeview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	adapter := backend.Get(*backendName)
	if adapter == nil {
		log.Fatalf("unknown backend %q, have %v", *backendName, backend.Available())
	}
	r := scopeview.New(adapter, scopeview.WithBinCount(*bins))
	if err := r.Init(); err != nil {
		log.Fatalf("init renderer: %v", err)
	}
	defer r.Close()

	for _, s := range []scopeview.SurfaceID{scopeview.SurfaceImage, scopeview.SurfaceHistogram} {
		if err := r.SetViewSize(s, 800, 600); err != nil {
			log.Fatalf("set view size: %v", err)
		}
	}

	if *gamma != 1.0 {
		p := scopeview.ImagePanelState{Fit: true, Zoom: 1, GammaEnabled: true, AutoMinMax: true, Gamma: float32(*gamma)}
		r.SetImagePanel(p)
		r.SetHistogramPanel(scopeview.HistogramPanelState{Gamma: float32(*gamma)})
	}

	if err := r.SetImage(synthesize(*width, *height), *width, *height, scopeview.FilterNearest); err != nil {
		log.Fatalf("set image: %v", err)
	}
	if err := r.RequestUpdate(scopeview.SurfaceImage); err != nil {
		log.Fatalf("request image update: %v", err)
	}
	if err := r.RequestUpdate(scopeview.SurfaceHistogram); err != nil {
		log.Fatalf("request histogram update: %v", err)
	}

	// Close queues behind the draws above, so once it returns both
	// surfaces hold their final frames.
	ext, _ := r.Extrema()
	if err := r.Close(); err != nil {
		log.Fatalf("close renderer: %v", err)
	}
	log.Printf("image %dx%d, sample range [%d, %d], max bin %d",
		*width, *height, ext.Min, ext.Max, r.HistogramMax())

	snap, ok := adapter.(snapshotter)
	if !ok {
		log.Printf("backend %q cannot snapshot surfaces, skipping output", *backendName)
		return
	}
	if err := savePNG(*imageOut, snap, scopeview.SurfaceImage); err != nil {
		log.Fatalf("save image surface: %v", err)
	}
	if err := savePNG(*histOut, snap, scopeview.SurfaceHistogram); err != nil {
		log.Fatalf("save histogram surface: %v", err)
	}
	log.Printf("wrote %s and %s", *imageOut, *histOut)
}

// synthesize builds a radial gradient with a bright gaussian blob, enough
// structure to make the histogram interesting.
func synthesize(w, h int) []uint16 {
	samples := make([]uint16, w*h)
	cx, cy := float64(w)/2, float64(h)/2
	maxR := math.Hypot(cx, cy)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r := math.Hypot(float64(x)-cx, float64(y)-cy) / maxR
			blob := 0.35 * math.Exp(-math.Pow(math.Hypot(float64(x)-cx*1.4, float64(y)-cy*0.6)/(maxR*0.1), 2))
			v := (1-r)*0.6 + blob
			samples[y*w+x] = uint16(math.Min(v, 1) * 65535)
		}
	}
	return samples
}

func savePNG(path string, snap snapshotter, s scopeview.SurfaceID) error {
	pm := snap.Snapshot(s)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, pm); err != nil {
		return err
	}
	return f.Close()
}
