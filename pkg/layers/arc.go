package layers

import (
	"math"

	"github.com/fogleman/gg"

	"github.com/foamviz/signalviz/pkg/geometry"
)

// StrokeArc strokes the elliptical arc inscribed in box from startDeg to
// endDeg with the context's current color and the given width.
//
// Angles follow screen coordinates: 0° is 3 o'clock and positive angles turn
// clockwise, so 0→180 is the lower half and 0→-180 the upper half.
func StrokeArc(dc *gg.Context, box geometry.Box, startDeg, endDeg, width float64) {
	cx, cy := box.Center()
	rx, ry := box.Radii()
	dc.NewSubPath()
	dc.DrawEllipticalArc(cx, cy, rx, ry, gg.Radians(startDeg), gg.Radians(endDeg))
	dc.SetLineWidth(width)
	dc.Stroke()
}

// fillCapsule fills the dome silhouette: the upper half of circle joined to
// the lower half of ellipse. Both share the same horizontal axis and width,
// so the two halves meet without a seam.
func fillCapsule(dc *gg.Context, circle, ellipse geometry.Box) {
	cx, cy := circle.Center()
	r, _ := circle.Radii()
	ex, ey := ellipse.Center()
	ea, eb := ellipse.Radii()

	dc.NewSubPath()
	dc.DrawEllipticalArc(cx, cy, r, r, math.Pi, 2*math.Pi)
	dc.DrawEllipticalArc(ex, ey, ea, eb, 0, math.Pi)
	dc.ClosePath()
	dc.Fill()
}
