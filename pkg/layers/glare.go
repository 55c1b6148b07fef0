package layers

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/foamviz/signalviz/pkg/geometry"
)

// GlareAlpha is the opacity of the highlight before blurring.
const GlareAlpha = 150

// SunGlare returns a mask with a soft white spot on the dome's upper-left
// shoulder. Only its alpha channel matters: the compositor blends towards
// white through it.
func SunGlare(size geometry.Size, pixelRadius float64) *image.NRGBA {
	w, h := float64(size.Width), float64(size.Height)
	spot := geometry.Box{
		X1: w/2 - 0.74*pixelRadius,
		Y1: h/2 - 0.66*pixelRadius,
		X2: w/2 - 0.45*pixelRadius,
		Y2: h/2 - 0.25*pixelRadius,
	}
	cx, cy := spot.Center()
	rx, ry := spot.Radii()

	dc := gg.NewContext(size.Width, size.Height)
	dc.SetRGBA255(255, 255, 255, GlareAlpha)
	dc.DrawEllipse(cx, cy, rx, ry)
	dc.Fill()

	return imaging.Blur(dc.Image(), 0.13*pixelRadius)
}
