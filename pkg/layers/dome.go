package layers

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/foamviz/signalviz/pkg/geometry"
)

const (
	// RimRings is the number of arc pairs forming the dome's glowing rim.
	RimRings = 200
	// RimSpacing is the vertical offset in pixels between consecutive rings.
	RimSpacing = 0.2
	// RimBoost is how much brighter (in alpha units) the first ring is than the fill.
	RimBoost = 25
	// RimWidth is the stroke width of each ring.
	RimWidth = 2
)

// Dome draws the translucent dome on a transparent canvas of the given size.
//
// The body is a capsule (semicircle over circle plus semi-ellipse over
// ellipse) at alpha 255*transparency. On top, RimRings pairs of arcs start at
// the base ellipse and drift 0.2px per ring: the lower arcs close in on the
// centre, the upper arcs spread out. Ring i has alpha
// 255*transparency + 25 - 25*i/RimRings and replaces whatever lies under it,
// so the rim fades into the body instead of saturating.
func Dome(ellipse, circle geometry.Box, col color.RGBA, transparency float64, size geometry.Size) *image.RGBA {
	dc := gg.NewContext(size.Width, size.Height)
	fill := int(255 * transparency)
	dc.SetRGBA255(int(col.R), int(col.G), int(col.B), fill)
	fillCapsule(dc, circle, ellipse)

	dome := dc.Image().(*image.RGBA)
	scratch := gg.NewContext(size.Width, size.Height)
	scratch.SetRGBA255(255, 255, 255, 255)
	ink := scratch.Image().(*image.RGBA)

	step := float64(RimBoost) / RimRings
	for i := 0; i < RimRings; i++ {
		alpha := uint8(clampAlpha(int(255*transparency + RimBoost - step*float64(i))))
		c := color.NRGBA{R: col.R, G: col.G, B: col.B, A: alpha}
		dy := RimSpacing * float64(i)

		lower := ellipse.Inset(dy)
		stamp(dome, ink, scratch, lower, 0, 180, c)
		upper := ellipse.Inset(-dy)
		stamp(dome, ink, scratch, upper, 0, -180, c)
	}
	return dome
}

// stamp strokes one arc onto the scratch canvas and copies its footprint
// into dst with color c, overwriting existing pixels.
func stamp(dst, ink *image.RGBA, scratch *gg.Context, box geometry.Box, startDeg, endDeg float64, c color.NRGBA) {
	pad := RimWidth + 1.0
	area := image.Rect(
		int(math.Floor(box.X1-pad)), int(math.Floor(box.Y1-pad)),
		int(math.Ceil(box.X2+pad)), int(math.Ceil(box.Y2+pad)),
	).Intersect(ink.Bounds())
	if area.Empty() {
		return
	}

	draw.Draw(ink, area, image.Transparent, image.Point{}, draw.Src)
	StrokeArc(scratch, box, startDeg, endDeg, RimWidth)

	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			if ink.Pix[ink.PixOffset(x, y)+3] >= 0x80 {
				dst.Set(x, y, c)
			}
		}
	}
}

func clampAlpha(a int) int {
	return max(0, min(255, a))
}
