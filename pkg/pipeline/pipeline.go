// Package pipeline orchestrates one signal render end to end.
//
// A render is a straight sequence of blocking steps:
//
//  1. Resolve: read the signal from the ledger and geocode it (signal renders only)
//  2. Geometry: derive pixel radius, zoom and the dome boxes
//  3. Composite: fetch the map styles and stack the drawn layers
//  4. Output: optionally save, show and/or return the PNG bytes
//
// Nothing is cached or retried; the first failure aborts the render.
//
// # Usage
//
//	runner := pipeline.NewRunner(resolver, compositor, pipeline.Geometry{
//	    Size:        geometry.Size{Width: 1000, Height: 750},
//	    Pitch:       50,
//	    Calibration: geometry.DefaultCalibration,
//	}, logger)
//
//	res, err := runner.RenderFromSignal(ctx, big.NewInt(42), pipeline.Output{
//	    SaveAs: pipeline.DefaultSavePath(big.NewInt(42)),
//	})
package pipeline

import (
	"image"
	"math/big"
	"path/filepath"
	"time"

	"github.com/foamviz/signalviz/pkg/errors"
	"github.com/foamviz/signalviz/pkg/geometry"
	"github.com/foamviz/signalviz/pkg/signal"
)

// DefaultOutputDir is where signal renders are saved when no path is given.
const DefaultOutputDir = "media/output/signals"

// DefaultSavePath returns the default file for signal id.
func DefaultSavePath(id *big.Int) string {
	return filepath.Join(DefaultOutputDir, id.String()+".png")
}

// Output selects what happens to a finished image. Any combination is valid;
// the zero value only returns the in-memory image.
type Output struct {
	Show        bool   // open the image in the system viewer
	SaveAs      string // write the PNG here, creating parent directories
	ReturnBytes bool   // include the encoded PNG in Result.PNG
}

// Validate checks the save path, if any.
func (o Output) Validate() error {
	if o.SaveAs == "" {
		return nil
	}
	return errors.ValidateOutputPath(o.SaveAs)
}

func (o Output) needsPNG() bool {
	return o.Show || o.SaveAs != "" || o.ReturnBytes
}

// Geometry holds the canvas and camera settings shared by every render.
type Geometry struct {
	Size        geometry.Size
	Pitch       float64
	Calibration geometry.Calibration
}

// Result is one finished render.
type Result struct {
	ID          string // unique per render, used in logs and temp file names
	Image       *image.RGBA
	Spec        geometry.Spec
	Coordinates geometry.Coordinates
	Signal      *signal.Record // nil for coordinate renders
	PNG         []byte         // set when Output.ReturnBytes
	Path        string         // set when Output.SaveAs
	Stats       Stats
}

// Stats records how long each stage took.
type Stats struct {
	ResolveTime time.Duration
	RenderTime  time.Duration
	OutputTime  time.Duration
}
