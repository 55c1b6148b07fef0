package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/foamviz/signalviz/pkg/errors"
	"github.com/foamviz/signalviz/pkg/geometry"
	"github.com/foamviz/signalviz/pkg/observability"
	"github.com/foamviz/signalviz/pkg/signal"
)

var testGeometry = Geometry{
	Size:        geometry.Size{Width: 1000, Height: 750},
	Pitch:       50,
	Calibration: geometry.DefaultCalibration,
}

var london = geometry.Coordinates{Lat: 51.5, Lon: -0.12}

type fakeResolver struct {
	rec   *signal.Record
	err   error
	calls int
}

func (f *fakeResolver) Resolve(context.Context, *big.Int) (*signal.Record, error) {
	f.calls++
	return f.rec, f.err
}

type fakeRenderer struct {
	specs  []geometry.Spec
	coords []geometry.Coordinates
	err    error
}

func (f *fakeRenderer) Render(_ context.Context, spec geometry.Spec, coords geometry.Coordinates) (*image.RGBA, error) {
	f.specs = append(f.specs, spec)
	f.coords = append(f.coords, coords)
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, spec.Size.Width, spec.Size.Height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 128, 128, 128, 255
	}
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	return img, nil
}

type fakeViewer struct {
	paths []string
}

func (f *fakeViewer) Show(path string) error {
	f.paths = append(f.paths, path)
	return nil
}

func newTestRunner(res *fakeResolver, ren *fakeRenderer) (*Runner, *fakeViewer) {
	r := NewRunner(res, ren, testGeometry, log.New(io.Discard))
	v := &fakeViewer{}
	r.Viewer = v
	return r, v
}

func TestRenderFromCoordinates(t *testing.T) {
	ren := &fakeRenderer{}
	r, _ := newTestRunner(nil, ren)

	res, err := r.RenderFromCoordinates(context.Background(), london, 5000, Output{ReturnBytes: true})
	if err != nil {
		t.Fatalf("RenderFromCoordinates() error: %v", err)
	}

	if math.Abs(res.Spec.PixelRadius-150) > 1e-9 {
		t.Errorf("PixelRadius = %v, want 150", res.Spec.PixelRadius)
	}
	if len(ren.coords) != 1 || ren.coords[0] != london {
		t.Errorf("renderer coords = %v, want [%v]", ren.coords, london)
	}
	if res.ID == "" {
		t.Error("render ID is empty")
	}
	if res.Path != "" {
		t.Errorf("Path = %q, want empty", res.Path)
	}

	decoded, err := png.Decode(bytes.NewReader(res.PNG))
	if err != nil {
		t.Fatalf("PNG bytes do not decode: %v", err)
	}
	if decoded.Bounds() != image.Rect(0, 0, 1000, 750) {
		t.Errorf("decoded bounds = %v", decoded.Bounds())
	}
}

func TestRenderFromCoordinatesNoBytesByDefault(t *testing.T) {
	r, v := newTestRunner(nil, &fakeRenderer{})
	res, err := r.RenderFromCoordinates(context.Background(), london, 5000, Output{})
	if err != nil {
		t.Fatalf("RenderFromCoordinates() error: %v", err)
	}
	if res.PNG != nil {
		t.Error("PNG should be nil without ReturnBytes")
	}
	if res.Image == nil {
		t.Error("Image should always be set")
	}
	if len(v.paths) != 0 {
		t.Errorf("viewer called with %v", v.paths)
	}
}

func TestRenderIDsAreUnique(t *testing.T) {
	r, _ := newTestRunner(nil, &fakeRenderer{})
	a, _ := r.RenderFromCoordinates(context.Background(), london, 5000, Output{})
	b, _ := r.RenderFromCoordinates(context.Background(), london, 5000, Output{})
	if a.ID == b.ID {
		t.Errorf("render IDs repeat: %s", a.ID)
	}
}

func TestRenderSaveAndShow(t *testing.T) {
	r, v := newTestRunner(nil, &fakeRenderer{})
	path := filepath.Join(t.TempDir(), "nested", "dir", "london.png")

	res, err := r.RenderFromCoordinates(context.Background(), london, 5000, Output{SaveAs: path, Show: true})
	if err != nil {
		t.Fatalf("RenderFromCoordinates() error: %v", err)
	}
	if res.Path != path {
		t.Errorf("Path = %q, want %q", res.Path, path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("saved file is not a PNG: %v", err)
	}
	if red, _, _, _ := img.At(0, 0).RGBA(); red>>8 != 255 {
		t.Errorf("saved pixel (0,0) red = %d, want 255", red>>8)
	}

	if len(v.paths) != 1 || v.paths[0] != path {
		t.Errorf("viewer paths = %v, want [%s]", v.paths, path)
	}
}

func TestRenderShowWithoutSave(t *testing.T) {
	r, v := newTestRunner(nil, &fakeRenderer{})
	if _, err := r.RenderFromCoordinates(context.Background(), london, 5000, Output{Show: true}); err != nil {
		t.Fatalf("RenderFromCoordinates() error: %v", err)
	}
	if len(v.paths) != 1 {
		t.Fatalf("viewer paths = %v, want one temp file", v.paths)
	}
	defer os.Remove(v.paths[0])
	if _, err := os.Stat(v.paths[0]); err != nil {
		t.Errorf("temp file missing: %v", err)
	}
}

func TestRenderFromCoordinatesRejects(t *testing.T) {
	tests := []struct {
		name   string
		coords geometry.Coordinates
		radius float64
		out    Output
		want   errors.Code
	}{
		{"zero radius", london, 0, Output{}, errors.ErrCodeDomain},
		{"negative radius", london, -100, Output{}, errors.ErrCodeDomain},
		{"radius extrapolating below zero", london, -20000, Output{}, errors.ErrCodeDomain},
		{"latitude out of range", geometry.Coordinates{Lat: 95}, 5000, Output{}, errors.ErrCodeInvalidInput},
		{"not a png", london, 5000, Output{SaveAs: "out.jpg"}, errors.ErrCodeInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ren := &fakeRenderer{}
			r, _ := newTestRunner(nil, ren)
			_, err := r.RenderFromCoordinates(context.Background(), tt.coords, tt.radius, tt.out)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
			if len(ren.specs) != 0 {
				t.Error("renderer should not be called")
			}
		})
	}
}

func TestRenderPoleClamps(t *testing.T) {
	ren := &fakeRenderer{}
	r, _ := newTestRunner(nil, ren)
	res, err := r.RenderFromCoordinates(context.Background(), geometry.Coordinates{Lat: 90}, 5000, Output{})
	if err != nil {
		t.Fatalf("RenderFromCoordinates() error: %v", err)
	}
	want, _ := geometry.Zoom(89, res.Spec.PixelRadius, 5000, geometry.DefaultCalibration.EarthCircumference)
	if res.Spec.Zoom != want {
		t.Errorf("Zoom = %v, want %v", res.Spec.Zoom, want)
	}
}

func TestRenderFromSignal(t *testing.T) {
	rec := &signal.Record{
		ID:           big.NewInt(42),
		Exists:       true,
		RadiusMeters: 5000,
		Geohash:      "gcpvj0duq",
		Coordinates:  london,
	}
	ren := &fakeRenderer{}
	r, _ := newTestRunner(&fakeResolver{rec: rec}, ren)

	res, err := r.RenderFromSignal(context.Background(), big.NewInt(42), Output{})
	if err != nil {
		t.Fatalf("RenderFromSignal() error: %v", err)
	}
	if res.Signal != rec {
		t.Error("Result.Signal not set")
	}
	if len(ren.coords) != 1 || ren.coords[0] != london {
		t.Errorf("renderer coords = %v", ren.coords)
	}
	if res.Spec.RadiusMeters != 5000 {
		t.Errorf("RadiusMeters = %v", res.Spec.RadiusMeters)
	}
}

func TestRenderFromSignalNotFound(t *testing.T) {
	ren := &fakeRenderer{}
	r, v := newTestRunner(&fakeResolver{err: errors.NotFound("signal 7 does not exist")}, ren)

	_, err := r.RenderFromSignal(context.Background(), big.NewInt(7), Output{Show: true, ReturnBytes: true})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
	if len(ren.specs) != 0 {
		t.Error("no map should be rendered for a missing signal")
	}
	if len(v.paths) != 0 {
		t.Error("nothing should be shown for a missing signal")
	}
}

func TestRenderFromSignalValidatesOutputFirst(t *testing.T) {
	res := &fakeResolver{}
	r, _ := newTestRunner(res, &fakeRenderer{})
	_, err := r.RenderFromSignal(context.Background(), big.NewInt(1), Output{SaveAs: "bad\x00.png"})
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("error = %v, want INVALID_PATH", err)
	}
	if res.calls != 0 {
		t.Error("resolver should not be called")
	}
}

func TestRenderFailurePropagates(t *testing.T) {
	ren := &fakeRenderer{err: errors.ExternalService(nil, "mapbox: status 401")}
	r, _ := newTestRunner(nil, ren)
	_, err := r.RenderFromCoordinates(context.Background(), london, 5000, Output{})
	if !errors.Is(err, errors.ErrCodeExternalService) {
		t.Errorf("error = %v, want EXTERNAL_SERVICE", err)
	}
}

func TestDefaultSavePath(t *testing.T) {
	got := DefaultSavePath(big.NewInt(1234))
	if want := filepath.Join("media", "output", "signals", "1234.png"); got != want {
		t.Errorf("DefaultSavePath() = %q, want %q", got, want)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	events []string
}

func (h *recordingHooks) OnResolveStart(context.Context, *big.Int) {
	h.events = append(h.events, "resolve")
}

func (h *recordingHooks) OnRenderComplete(_ context.Context, _ string, _ time.Duration, err error) {
	if err != nil {
		h.events = append(h.events, "render failed")
		return
	}
	h.events = append(h.events, "render")
}

func TestRunnerEmitsHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	t.Cleanup(observability.Reset)

	rec := &signal.Record{ID: big.NewInt(42), Exists: true, RadiusMeters: 5000, Coordinates: london}
	r, _ := newTestRunner(&fakeResolver{rec: rec}, &fakeRenderer{})
	if _, err := r.RenderFromSignal(context.Background(), big.NewInt(42), Output{}); err != nil {
		t.Fatalf("RenderFromSignal() error: %v", err)
	}

	failing, _ := newTestRunner(nil, &fakeRenderer{err: errors.ExternalService(nil, "down")})
	failing.RenderFromCoordinates(context.Background(), london, 5000, Output{})

	want := []string{"resolve", "render", "render failed"}
	if strings.Join(hooks.events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", hooks.events, want)
	}
}
