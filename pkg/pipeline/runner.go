package pipeline

import (
	"context"
	"fmt"
	"image"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/pkg/browser"

	"github.com/foamviz/signalviz/pkg/compositor"
	"github.com/foamviz/signalviz/pkg/errors"
	"github.com/foamviz/signalviz/pkg/geometry"
	"github.com/foamviz/signalviz/pkg/observability"
	"github.com/foamviz/signalviz/pkg/signal"
)

// Resolver looks up signals. *signal.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, id *big.Int) (*signal.Record, error)
}

// Renderer composites the image for a geometry. *compositor.Compositor satisfies it.
type Renderer interface {
	Render(ctx context.Context, spec geometry.Spec, coords geometry.Coordinates) (*image.RGBA, error)
}

// Viewer displays a PNG file to the user.
type Viewer interface {
	Show(path string) error
}

// BrowserViewer opens files with the operating system's default handler.
type BrowserViewer struct{}

// Show opens path with the default application for PNG files.
func (BrowserViewer) Show(path string) error {
	return browser.OpenFile(path)
}

// Runner executes renders. It holds no per-render state, so a single Runner
// can serve many sequential requests.
type Runner struct {
	Resolver Resolver
	Renderer Renderer
	Viewer   Viewer
	Geometry Geometry
	Logger   *log.Logger
}

// NewRunner creates a runner. A nil logger selects log.Default().
// resolver may be nil when only coordinate renders are needed.
func NewRunner(resolver Resolver, renderer Renderer, geo Geometry, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Resolver: resolver,
		Renderer: renderer,
		Viewer:   BrowserViewer{},
		Geometry: geo,
		Logger:   logger,
	}
}

// RenderFromSignal resolves signal id and renders its dome.
// A missing signal fails with NOT_FOUND before any map is fetched.
func (r *Runner) RenderFromSignal(ctx context.Context, id *big.Int, out Output) (*Result, error) {
	if err := out.Validate(); err != nil {
		return nil, err
	}
	if r.Resolver == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no signal resolver configured")
	}

	hooks := observability.Pipeline()
	hooks.OnResolveStart(ctx, id)
	start := time.Now()
	rec, err := r.Resolver.Resolve(ctx, id)
	resolveTime := time.Since(start)
	hooks.OnResolveComplete(ctx, id, resolveTime, err)
	if err != nil {
		return nil, err
	}

	r.Logger.Info("resolved signal",
		"id", id,
		"geohash", rec.Geohash,
		"radius", rec.RadiusMeters,
		"duration", resolveTime)
	r.Logger.Debug("signal details",
		"cst", rec.CST,
		"minted", rec.MintTime,
		"staked_wei", rec.StakedWei)

	res, err := r.RenderFromCoordinates(ctx, rec.Coordinates, rec.RadiusMeters, out)
	if err != nil {
		return nil, err
	}
	res.Signal = rec
	res.Stats.ResolveTime = resolveTime
	return res, nil
}

// RenderFromCoordinates renders a dome of radiusMeters centred on coords.
func (r *Runner) RenderFromCoordinates(ctx context.Context, coords geometry.Coordinates, radiusMeters float64, out Output) (*Result, error) {
	if err := out.Validate(); err != nil {
		return nil, err
	}
	if err := errors.ValidateCoordinates(coords.Lat, coords.Lon); err != nil {
		return nil, err
	}

	cal := r.Geometry.Calibration
	if radiusMeters > 0 && !cal.InRange(radiusMeters) {
		r.Logger.Warn("radius outside calibrated range",
			"radius", radiusMeters,
			"min", cal.MinRadiusMeters,
			"max", cal.MaxRadiusMeters)
	}
	spec, err := geometry.NewSpec(coords.Lat, radiusMeters, r.Geometry.Size, r.Geometry.Pitch, cal)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ID:          uuid.NewString(),
		Spec:        spec,
		Coordinates: coords,
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, res.ID, spec.Zoom)
	start := time.Now()
	img, err := r.Renderer.Render(ctx, spec, coords)
	res.Stats.RenderTime = time.Since(start)
	hooks.OnRenderComplete(ctx, res.ID, res.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res.Image = img

	r.Logger.Info("rendered signal",
		"render_id", res.ID,
		"zoom", spec.Zoom,
		"pixel_radius", spec.PixelRadius,
		"duration", res.Stats.RenderTime)

	start = time.Now()
	if err := r.deliver(res, out); err != nil {
		return nil, err
	}
	res.Stats.OutputTime = time.Since(start)
	return res, nil
}

// deliver encodes the image once and hands it to every requested output.
func (r *Runner) deliver(res *Result, out Output) error {
	if !out.needsPNG() {
		return nil
	}
	data, err := compositor.EncodePNG(res.Image)
	if err != nil {
		return err
	}
	if out.ReturnBytes {
		res.PNG = data
	}

	showPath := ""
	if out.SaveAs != "" {
		if err := writeFile(out.SaveAs, data); err != nil {
			return err
		}
		res.Path = out.SaveAs
		showPath = out.SaveAs
		r.Logger.Info("saved image", "path", out.SaveAs)
	}

	if out.Show {
		if showPath == "" {
			tmp, err := writeTemp(res.ID, data)
			if err != nil {
				return err
			}
			showPath = tmp
		}
		if err := r.Viewer.Show(showPath); err != nil {
			// viewing is best effort; the render itself succeeded
			r.Logger.Warn("could not open viewer", "path", showPath, "error", err)
		}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory")
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}

func writeTemp(id string, data []byte) (string, error) {
	f, err := os.CreateTemp("", "signalviz-"+id+"-*.png")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create temp file")
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write temp file")
	}
	return f.Name(), nil
}
