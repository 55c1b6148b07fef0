package cli

import (
	"context"
	_ "embed"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/foamviz/signalviz/pkg/errors"
	"github.com/foamviz/signalviz/pkg/geometry"
	"github.com/foamviz/signalviz/pkg/pipeline"
)

//go:embed places.toml
var defaultPlaces string

// batchFile is the TOML document read by the batch command.
type batchFile struct {
	OutputDir string       `toml:"output_dir"`
	Radii     []float64    `toml:"radii"`
	Places    []batchPlace `toml:"place"`
}

type batchPlace struct {
	Name  string    `toml:"name"`
	Lat   float64   `toml:"lat"`
	Lon   float64   `toml:"lon"`
	Radii []float64 `toml:"radii"` // overrides the file-level radii
}

// batchJob is one place rendered at one radius.
type batchJob struct {
	place  batchPlace
	radius float64
	path   string
}

func (c *CLI) batchCommand() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "batch [places.toml]",
		Short: "Render every place and radius listed in a TOML file",
		Long: `Render every place at every radius listed in a TOML file, one after
another. Without a file, a built-in set of cities from the equator to the
polar circles is rendered at 1, 5 and 25 km.

File format:

  output_dir = "media/output/testing_images"
  radii = [1000, 5000, 25000]

  [[place]]
  name = "London"
  lat = 51.51095
  lon = -0.103222
  radii = [2500]   # optional, overrides the top-level radii

Images are named <lat>_<name>_<km>.png.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				file *batchFile
				err  error
			)
			if len(args) == 1 {
				file, err = readBatchFile(args[0], loggerFromContext(cmd.Context()))
			} else {
				file, err = parseBatch(defaultPlaces, "built-in places")
			}
			if err != nil {
				return err
			}
			if outDir != "" {
				file.OutputDir = outDir
			}
			return c.runBatch(cmd.Context(), file)
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (overrides output_dir)")
	return cmd
}

func readBatchFile(path string, logger *log.Logger) (*batchFile, error) {
	var file batchFile
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	for _, key := range md.Undecoded() {
		logger.Warn("ignoring unknown key", "file", path, "key", key.String())
	}
	return &file, file.validate(path)
}

func parseBatch(data, name string) (*batchFile, error) {
	var file batchFile
	if _, err := toml.Decode(data, &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", name)
	}
	return &file, file.validate(name)
}

func (f *batchFile) validate(name string) error {
	if len(f.Places) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "%s lists no places", name)
	}
	for i, p := range f.Places {
		if strings.TrimSpace(p.Name) == "" {
			return errors.New(errors.ErrCodeInvalidInput, "%s: place %d has no name", name, i+1)
		}
		if err := errors.ValidateCoordinates(p.Lat, p.Lon); err != nil {
			return fmt.Errorf("%s: place %q: %w", name, p.Name, err)
		}
		if len(p.Radii) == 0 && len(f.Radii) == 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%s: place %q has no radii", name, p.Name)
		}
	}
	return nil
}

// jobs expands the file into one job per place and radius, in file order.
func (f *batchFile) jobs() []batchJob {
	dir := f.OutputDir
	if dir == "" {
		dir = "."
	}
	var jobs []batchJob
	for _, p := range f.Places {
		radii := p.Radii
		if len(radii) == 0 {
			radii = f.Radii
		}
		for _, r := range radii {
			jobs = append(jobs, batchJob{
				place:  p,
				radius: r,
				path:   filepath.Join(dir, batchFileName(p, r)),
			})
		}
	}
	return jobs
}

// batchFileName formats <lat>_<name>_<km>.png, e.g. "51.5_London_5.png".
func batchFileName(p batchPlace, radius float64) string {
	km := fmt.Sprintf("%g", radius/1000)
	name := strings.NewReplacer("/", "-", "\\", "-").Replace(p.Name)
	return fmt.Sprintf("%.1f_%s_%s.png", p.Lat, name, km)
}

// runBatch renders jobs sequentially. A failed job is reported and skipped;
// cancellation stops the whole batch.
func (c *CLI) runBatch(ctx context.Context, file *batchFile) error {
	runner, cleanup, err := c.newRunner(ctx, false)
	defer cleanup()
	if err != nil {
		return err
	}
	logger := loggerFromContext(ctx)

	jobs := file.jobs()
	var failed int
	for i, job := range jobs {
		prog := newProgress(logger)
		coords := geometry.Coordinates{Lat: job.place.Lat, Lon: job.place.Lon}
		_, err := runner.RenderFromCoordinates(ctx, coords, job.radius, pipeline.Output{SaveAs: job.path})
		if err != nil {
			if stderrors.Is(err, context.Canceled) || ctx.Err() != nil {
				return err
			}
			failed++
			printError("%s at %g m: %s", job.place.Name, job.radius, errors.UserMessage(err))
			continue
		}
		prog.done(fmt.Sprintf("[%d/%d] %s at %g m", i+1, len(jobs), job.place.Name, job.radius))
		printFile(job.path)
	}

	if failed > 0 {
		return errors.New(errors.ErrCodeExternalService, "%d of %d renders failed", failed, len(jobs))
	}
	printSuccess("Rendered %d images", len(jobs))
	return nil
}
