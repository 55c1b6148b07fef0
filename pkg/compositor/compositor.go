// Package compositor assembles the final signal image.
//
// Three map styles of the same camera are fetched (base, roads, labels) and
// interleaved with the drawn layers in a fixed order:
//
//	base → roads → beacon → labels → dome → glare → gray backdrop
//
// Labels are drawn after the beacon so place names stay legible, and the dome
// sits above everything map-related. The result is pasted onto mid-gray so it
// is fully opaque.
package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // static maps may be served as JPEG
	"image/png"

	"golang.org/x/image/draw"

	"github.com/foamviz/signalviz/pkg/errors"
	"github.com/foamviz/signalviz/pkg/geometry"
	"github.com/foamviz/signalviz/pkg/layers"
)

// Backdrop is the color behind every transparent pixel of the final image.
var Backdrop = color.RGBA{R: 128, G: 128, B: 128, A: 255}

// TileSource renders one map style for a camera. *mapbox.Client satisfies it.
type TileSource interface {
	FetchStyle(ctx context.Context, coords geometry.Coordinates, zoom float64, style string) ([]byte, error)
}

// Styles names the three map styles stacked in every image.
type Styles struct {
	Under  string
	Roads  string
	Labels string
}

// Options controls the drawn layers.
type Options struct {
	Styles       Styles
	Beacon       image.Image // nil selects layers.DefaultBeacon
	DomeColor    color.RGBA
	Transparency float64 // dome body opacity, 0-1
}

// Compositor renders signal images. It keeps no state between renders.
type Compositor struct {
	tiles TileSource
	opts  Options
}

// New creates a Compositor fetching map styles from tiles.
func New(tiles TileSource, opts Options) *Compositor {
	if opts.Beacon == nil {
		opts.Beacon = layers.DefaultBeacon()
	}
	return &Compositor{tiles: tiles, opts: opts}
}

// Render draws the signal described by spec, centred on coords.
// Map styles are fetched one after another; the first failure aborts.
func (c *Compositor) Render(ctx context.Context, spec geometry.Spec, coords geometry.Coordinates) (*image.RGBA, error) {
	base, err := c.fetch(ctx, spec, coords, c.opts.Styles.Under)
	if err != nil {
		return nil, err
	}
	roads, err := c.fetch(ctx, spec, coords, c.opts.Styles.Roads)
	if err != nil {
		return nil, err
	}
	labels, err := c.fetch(ctx, spec, coords, c.opts.Styles.Labels)
	if err != nil {
		return nil, err
	}

	beacon, at := layers.Beacon(c.opts.Beacon, spec.Size, spec.PixelRadius)
	dome := layers.Dome(spec.EllipseBox, spec.CircleBox, c.opts.DomeColor, c.opts.Transparency, spec.Size)
	glare := layers.SunGlare(spec.Size, spec.PixelRadius)

	img := base
	bounds := img.Bounds()
	draw.Draw(img, bounds, roads, image.Point{}, draw.Over)
	draw.Draw(img, beacon.Bounds().Add(at), beacon, beacon.Bounds().Min, draw.Over)
	draw.Draw(img, bounds, labels, image.Point{}, draw.Over)
	draw.Draw(img, bounds, dome, image.Point{}, draw.Over)
	draw.DrawMask(img, bounds, image.White, image.Point{}, glare, image.Point{}, draw.Over)

	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, image.NewUniform(Backdrop), image.Point{}, draw.Src)
	draw.Draw(out, bounds, img, image.Point{}, draw.Over)
	return out, nil
}

// fetch downloads one style and returns it as a canvas-sized RGBA image.
func (c *Compositor) fetch(ctx context.Context, spec geometry.Spec, coords geometry.Coordinates, style string) (*image.RGBA, error) {
	data, err := c.tiles.FetchStyle(ctx, coords, spec.Zoom, style)
	if err != nil {
		return nil, err
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.ExternalService(err, "decode map style %s", style)
	}
	return toCanvas(src, spec.Size), nil
}

// toCanvas converts src to RGBA at size. Tiles served at a different
// resolution (e.g. @2x) are resampled.
func toCanvas(src image.Image, size geometry.Size) *image.RGBA {
	rect := image.Rect(0, 0, size.Width, size.Height)
	dst := image.NewRGBA(rect)
	if src.Bounds().Size() == rect.Size() {
		draw.Draw(dst, rect, src, src.Bounds().Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)
	return dst
}

// EncodePNG serializes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

// String implements fmt.Stringer for log output.
func (s Styles) String() string {
	return fmt.Sprintf("under=%s roads=%s labels=%s", s.Under, s.Roads, s.Labels)
}
