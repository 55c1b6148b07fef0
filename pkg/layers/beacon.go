package layers

import (
	"fmt"
	"image"
	_ "image/jpeg" // sprites may be JPEG
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/foamviz/signalviz/pkg/geometry"
)

// Position of the sprite's foot relative to its own size. Pasting the sprite
// at centre - (anchorX*w, anchorY*h) stands the beacon on the dome's centre.
const (
	anchorX = 0.514
	anchorY = 0.881
)

// Beacon scales sprite to half the dome radius in height, keeping its aspect
// ratio, and returns it together with the top-left point it must be pasted at.
// A zero-height result yields an empty image.
func Beacon(sprite image.Image, size geometry.Size, pixelRadius float64) (*image.NRGBA, image.Point) {
	height := int(pixelRadius / 2)
	b := sprite.Bounds()
	if height <= 0 || b.Dx() == 0 || b.Dy() == 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0)), image.Point{X: size.Width / 2, Y: size.Height / 2}
	}
	width := int(float64(b.Dx()) * float64(height) / float64(b.Dy()))
	width = max(width, 1)

	scaled := imaging.Resize(sprite, width, height, imaging.Lanczos)
	pos := image.Point{
		X: int(float64(size.Width)/2 - anchorX*float64(width)),
		Y: int(float64(size.Height)/2 - anchorY*float64(height)),
	}
	return scaled, pos
}

// LoadSprite decodes a PNG or JPEG beacon sprite from path.
func LoadSprite(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open beacon sprite: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode beacon sprite %s: %w", path, err)
	}
	return img, nil
}

// DefaultBeacon draws the built-in lattice tower sprite. Its foot sits at
// (anchorX, anchorY) of the sprite so it lines up like a loaded asset would.
func DefaultBeacon() image.Image {
	const w, h = 140, 320
	footX, footY := anchorX*w, anchorY*h
	topY := 0.14 * h

	dc := gg.NewContext(w, h)

	// ground shadow
	dc.SetRGBA255(0, 0, 0, 70)
	dc.DrawEllipse(footX, footY, 34, 8)
	dc.Fill()

	// legs
	dc.SetRGBA255(236, 84, 48, 255)
	dc.SetLineWidth(6)
	dc.DrawLine(footX-26, footY, footX, topY)
	dc.DrawLine(footX+26, footY, footX, topY)
	dc.Stroke()

	// cross bracing
	dc.SetLineWidth(3)
	for i := 1; i < 6; i++ {
		t := float64(i) / 6
		y := footY - t*(footY-topY)
		half := 26 * (1 - t)
		dc.DrawLine(footX-half, y, footX+half, y)
	}
	dc.Stroke()

	// lamp
	dc.SetRGBA255(255, 230, 120, 255)
	dc.DrawCircle(footX, topY-10, 12)
	dc.Fill()
	dc.SetRGBA255(255, 255, 255, 200)
	dc.DrawCircle(footX-3, topY-13, 4)
	dc.Fill()

	return dc.Image()
}
