// Package geometry converts a signal's radius in meters into the pixel and
// zoom values the compositor draws with.
//
// The conversion is calibrated so that every radius in
// [Calibration.MinRadiusMeters, Calibration.MaxRadiusMeters] yields a dome
// whose pixel radius lies between MinRadiusRate and MaxRadiusRate of the
// canvas' shorter side. The map zoom is then chosen so that the dome's pixel
// radius corresponds to the real radius on the ground at the given latitude.
//
// See https://docs.mapbox.com/help/glossary/zoom-level/ for the zoom formula.
package geometry

import (
	"math"

	"github.com/foamviz/signalviz/pkg/errors"
)

// MaxAbsLatitude is the latitude magnitude beyond which Zoom clamps its input.
// cos(lat) approaches zero at the poles and would send the zoom to -Inf.
const MaxAbsLatitude = 89.0

// Size is a canvas size in pixels.
type Size struct {
	Width  int
	Height int
}

// Min returns the shorter side.
func (s Size) Min() int {
	return min(s.Width, s.Height)
}

// Calibration maps meter radii onto canvas-relative pixel radii.
type Calibration struct {
	MinRadiusMeters    float64
	MaxRadiusMeters    float64
	MinRadiusRate      float64 // dome radius / min(width, height) at MinRadiusMeters
	MaxRadiusRate      float64 // dome radius / min(width, height) at MaxRadiusMeters
	EarthCircumference float64 // meters
}

// DefaultCalibration is tuned for FOAM signals, which range from 1 km to 25 km.
var DefaultCalibration = Calibration{
	MinRadiusMeters:    1000,
	MaxRadiusMeters:    25000,
	MinRadiusRate:      0.15,
	MaxRadiusRate:      0.45,
	EarthCircumference: 40075017,
}

// InRange reports whether meters lies inside the calibrated radius range.
func (c Calibration) InRange(meters float64) bool {
	return meters >= c.MinRadiusMeters && meters <= c.MaxRadiusMeters
}

// MetersToPixelRadius linearly interpolates the dome's pixel radius.
//
// Radii outside the calibrated range are not clamped: they extrapolate past
// MinRadiusRate/MaxRadiusRate and may produce a non-positive result.
func MetersToPixelRadius(radiusMeters float64, size Size, cal Calibration) float64 {
	t := (radiusMeters - cal.MinRadiusMeters) / (cal.MaxRadiusMeters - cal.MinRadiusMeters)
	// exact at both calibration endpoints
	rate := cal.MinRadiusRate*(1-t) + cal.MaxRadiusRate*t
	return rate * float64(size.Min())
}

// ClampLatitude limits |latitude| to MaxAbsLatitude, preserving the sign.
func ClampLatitude(latitude float64) float64 {
	if math.Abs(latitude) > MaxAbsLatitude {
		return math.Copysign(MaxAbsLatitude, latitude)
	}
	return latitude
}

// Zoom returns the map zoom at which pixelRadius pixels cover radiusMeters
// meters at the given latitude.
//
// It fails with a DOMAIN error when radiusMeters is not positive or when the
// logarithm's argument would be non-positive (pixelRadius <= 0).
func Zoom(latitude, pixelRadius, radiusMeters, earthCircumference float64) (float64, error) {
	if !(radiusMeters > 0) {
		return 0, errors.Domain("radius must be positive, got %v m", radiusMeters)
	}
	lat := ClampLatitude(latitude) * math.Pi / 180
	arg := earthCircumference * math.Cos(lat) * pixelRadius / radiusMeters
	if !(arg > 0) || math.IsInf(arg, 0) {
		return 0, errors.Domain("cannot compute zoom for %v px over %v m at latitude %v", pixelRadius, radiusMeters, latitude)
	}
	return math.Log2(arg) - 9, nil
}

// Coordinates is a WGS84 position in degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}
