package geometry

import (
	"math"

	"github.com/foamviz/signalviz/pkg/errors"
)

// Box is an axis-aligned bounding box (X1,Y1) top-left, (X2,Y2) bottom-right.
type Box struct {
	X1, Y1, X2, Y2 float64
}

// Center returns the box centre.
func (b Box) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Radii returns the horizontal and vertical semi-axes.
func (b Box) Radii() (rx, ry float64) {
	return (b.X2 - b.X1) / 2, (b.Y2 - b.Y1) / 2
}

// Inset shrinks the box vertically by dy on both edges. A negative dy grows it.
func (b Box) Inset(dy float64) Box {
	return Box{X1: b.X1, Y1: b.Y1 + dy, X2: b.X2, Y2: b.Y2 - dy}
}

// Spec is everything the compositor needs to draw one dome.
type Spec struct {
	Size         Size
	RadiusMeters float64
	PixelRadius  float64
	Zoom         float64
	Pitch        float64 // degrees
	EllipseBox   Box     // dome base, foreshortened by the camera pitch
	CircleBox    Box     // dome silhouette
}

// NewSpec derives the dome geometry for a signal at latitude with the given
// radius. The result depends only on its inputs.
func NewSpec(latitude, radiusMeters float64, size Size, pitchDeg float64, cal Calibration) (Spec, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return Spec{}, errors.Domain("canvas size must be positive, got %dx%d", size.Width, size.Height)
	}
	if !(radiusMeters > 0) {
		return Spec{}, errors.Domain("radius must be positive, got %v m", radiusMeters)
	}
	r := MetersToPixelRadius(radiusMeters, size, cal)
	if !(r > 0) {
		return Spec{}, errors.Domain("radius %v m maps to a non-positive pixel radius %v", radiusMeters, r)
	}
	zoom, err := Zoom(latitude, r, radiusMeters, cal.EarthCircumference)
	if err != nil {
		return Spec{}, err
	}

	cx, cy := float64(size.Width)/2, float64(size.Height)/2
	a, b := r, r*math.Cos(pitchDeg*math.Pi/180)
	return Spec{
		Size:         size,
		RadiusMeters: radiusMeters,
		PixelRadius:  r,
		Zoom:         zoom,
		Pitch:        pitchDeg,
		CircleBox:    Box{X1: cx - r, Y1: cy - r, X2: cx + r, Y2: cy + r},
		EllipseBox:   Box{X1: cx - a, Y1: cy - b, X2: cx + a, Y2: cy + b},
	}, nil
}
