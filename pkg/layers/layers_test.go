package layers

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/foamviz/signalviz/pkg/geometry"
)

var canvas = geometry.Size{Width: 1000, Height: 750}

func londonSpec(t *testing.T) geometry.Spec {
	t.Helper()
	spec, err := geometry.NewSpec(51.5, 5000, canvas, 50, geometry.DefaultCalibration)
	if err != nil {
		t.Fatalf("NewSpec() error: %v", err)
	}
	return spec
}

func TestDome(t *testing.T) {
	spec := londonSpec(t)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	transparency := 0.15
	dome := Dome(spec.EllipseBox, spec.CircleBox, white, transparency, canvas)

	if dome.Bounds() != image.Rect(0, 0, 1000, 750) {
		t.Fatalf("bounds = %v, want 1000x750", dome.Bounds())
	}

	fill := uint8(255 * transparency)
	if a := dome.RGBAAt(500, 375).A; a != fill {
		t.Errorf("body alpha = %d, want %d", a, fill)
	}
	if a := dome.RGBAAt(5, 5).A; a != 0 {
		t.Errorf("outside alpha = %d, want 0", a)
	}

	// bottom of the base ellipse sits on the brightest rings
	_, ry := spec.EllipseBox.Radii()
	rim := dome.RGBAAt(500, int(math.Round(375+ry)))
	if rim.A <= fill || rim.A > fill+RimBoost {
		t.Errorf("rim alpha = %d, want in (%d, %d]", rim.A, fill, fill+RimBoost)
	}

	// top of the dome belongs to the silhouette circle
	if a := dome.RGBAAt(500, int(375-spec.PixelRadius)+3).A; a == 0 {
		t.Error("dome top should be filled")
	}
}

func TestDomeDeterministic(t *testing.T) {
	spec := londonSpec(t)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	a := Dome(spec.EllipseBox, spec.CircleBox, white, 0.15, canvas)
	b := Dome(spec.EllipseBox, spec.CircleBox, white, 0.15, canvas)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("pixel byte %d differs: %d vs %d", i, a.Pix[i], b.Pix[i])
		}
	}
}

func TestBeacon(t *testing.T) {
	sprite := image.NewNRGBA(image.Rect(0, 0, 100, 200))
	scaled, pos := Beacon(sprite, canvas, 150)

	if got := scaled.Bounds().Size(); got != (image.Point{X: 37, Y: 75}) {
		t.Errorf("scaled size = %v, want 37x75", got)
	}
	if want := (image.Point{X: 480, Y: 308}); pos != want {
		t.Errorf("position = %v, want %v", pos, want)
	}
}

func TestBeaconTinyRadius(t *testing.T) {
	sprite := image.NewNRGBA(image.Rect(0, 0, 100, 200))
	scaled, _ := Beacon(sprite, canvas, 1)
	if !scaled.Bounds().Empty() {
		t.Errorf("bounds = %v, want empty", scaled.Bounds())
	}
}

func TestDefaultBeaconFoot(t *testing.T) {
	sprite := DefaultBeacon()
	b := sprite.Bounds()
	x := int(anchorX * float64(b.Dx()))
	y := int(anchorY*float64(b.Dy())) - 4
	if _, _, _, a := sprite.At(x, y).RGBA(); a == 0 {
		t.Errorf("sprite foot at (%d, %d) is transparent", x, y)
	}
	if _, _, _, a := sprite.At(0, 0).RGBA(); a != 0 {
		t.Error("sprite corner should be transparent")
	}
}

func TestLoadSprite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tower.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	src := image.NewNRGBA(image.Rect(0, 0, 8, 16))
	src.SetNRGBA(3, 3, color.NRGBA{R: 10, A: 255})
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := LoadSprite(path)
	if err != nil {
		t.Fatalf("LoadSprite() error: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 16 {
		t.Errorf("bounds = %v, want 8x16", img.Bounds())
	}

	if _, err := LoadSprite(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("LoadSprite() on missing file should fail")
	}
}

func TestSunGlare(t *testing.T) {
	r := 150.0
	glare := SunGlare(canvas, r)

	if glare.Bounds() != image.Rect(0, 0, 1000, 750) {
		t.Fatalf("bounds = %v, want 1000x750", glare.Bounds())
	}

	cx := int(500 - 0.595*r)
	cy := int(375 - 0.455*r)
	centre := glare.NRGBAAt(cx, cy).A
	if centre == 0 || centre > GlareAlpha {
		t.Errorf("glare centre alpha = %d, want in (0, %d]", centre, GlareAlpha)
	}
	if a := glare.NRGBAAt(999, 749).A; a != 0 {
		t.Errorf("far corner alpha = %d, want 0", a)
	}
	// blurred edge is softer than the centre
	if edge := glare.NRGBAAt(int(500-0.45*r), cy).A; edge >= centre {
		t.Errorf("edge alpha %d should be below centre alpha %d", edge, centre)
	}
}
