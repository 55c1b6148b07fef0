package cli

import (
	"context"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/foamviz/signalviz/pkg/errors"
	"github.com/foamviz/signalviz/pkg/pipeline"
)

// saveDefault is the value --save takes when given without a path.
const saveDefault = "default"

// renderFlags are the output flags shared by signal and place.
type renderFlags struct {
	save string
	show bool
}

func (f *renderFlags) register(cmd *cobra.Command, saveUsage string) {
	cmd.Flags().StringVar(&f.save, "save", "", saveUsage)
	cmd.Flags().BoolVar(&f.show, "show", false, "open the image in the default viewer")
}

func (c *CLI) signalCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "signal <signal-id>",
		Short: "Render the dome of an on-chain FOAM signal",
		Long: `Render the dome of an on-chain FOAM signal.

The signal's radius and position are read from the SignalToken contract and
the FOAM map API. Pass --save to write the image to
media/output/signals/<signal-id>.png, or --save=<path> to choose the file.`,
		Example: `  signalviz signal 1234 --save
  signalviz signal 1234 --save=dome.png --show`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := errors.ValidateSignalID(args[0])
			if err != nil {
				return err
			}
			out := pipeline.Output{Show: flags.show, SaveAs: savePath(flags.save, id)}
			return c.runSignal(cmd.Context(), id, out)
		},
	}

	flags.register(cmd, "save the image, optionally to the given .png path")
	cmd.Flags().Lookup("save").NoOptDefVal = saveDefault
	return cmd
}

// savePath expands the --save flag value.
func savePath(flag string, id *big.Int) string {
	if flag == saveDefault {
		return pipeline.DefaultSavePath(id)
	}
	return flag
}

func (c *CLI) runSignal(ctx context.Context, id *big.Int, out pipeline.Output) error {
	runner, cleanup, err := c.newRunner(ctx, true)
	defer cleanup()
	if err != nil {
		return err
	}
	warnNoOutput(out)

	spinner := newSpinner(ctx, "Rendering signal "+id.String())
	spinner.Start()
	res, err := runner.RenderFromSignal(ctx, id, out)
	spinner.Stop()
	if err != nil {
		return err
	}

	printSuccess("Rendered signal %s", StyleHighlight.Render(id.String()))
	printResult(res)
	return nil
}

func warnNoOutput(out pipeline.Output) {
	if !out.Show && out.SaveAs == "" {
		printWarning("neither --save nor --show given; the image will be discarded")
	}
}
