package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foamviz/signalviz/pkg/geometry"
	"github.com/foamviz/signalviz/pkg/pipeline"
)

func (c *CLI) placeCommand() *cobra.Command {
	var (
		flags    renderFlags
		lat, lon float64
		radius   float64
	)

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Render a dome at arbitrary coordinates",
		Long: `Render a dome of the given radius at arbitrary coordinates, without
looking anything up on the blockchain. Useful to preview how a signal
would look before it exists.`,
		Example: `  signalviz place --lat 51.51 --lon -0.10 --radius 5000 --show
  signalviz place --lat -54.8 --lon -68.3 --radius 25000 --save=ushuaia.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			coords := geometry.Coordinates{Lat: lat, Lon: lon}
			return c.runPlace(cmd.Context(), coords, radius, pipeline.Output{Show: flags.show, SaveAs: flags.save})
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude in degrees")
	cmd.Flags().Float64Var(&radius, "radius", 5000, "dome radius in meters")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lon")
	flags.register(cmd, "save the image to this .png path")
	return cmd
}

func (c *CLI) runPlace(ctx context.Context, coords geometry.Coordinates, radius float64, out pipeline.Output) error {
	runner, cleanup, err := c.newRunner(ctx, false)
	defer cleanup()
	if err != nil {
		return err
	}
	warnNoOutput(out)

	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %.0f m at %.4f, %.4f", radius, coords.Lat, coords.Lon))
	spinner.Start()
	res, err := runner.RenderFromCoordinates(ctx, coords, radius, out)
	spinner.Stop()
	if err != nil {
		return err
	}

	printSuccess("Rendered dome")
	printResult(res)
	return nil
}
