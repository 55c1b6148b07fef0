package cli

import (
	"context"
	"image"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/foamviz/signalviz/pkg/buildinfo"
	"github.com/foamviz/signalviz/pkg/compositor"
	"github.com/foamviz/signalviz/pkg/config"
	"github.com/foamviz/signalviz/pkg/foam"
	"github.com/foamviz/signalviz/pkg/integrations"
	"github.com/foamviz/signalviz/pkg/layers"
	"github.com/foamviz/signalviz/pkg/ledger"
	"github.com/foamviz/signalviz/pkg/mapbox"
	"github.com/foamviz/signalviz/pkg/pipeline"
	"github.com/foamviz/signalviz/pkg/signal"
)

// appName is the application name used for display and temp files.
const appName = "signalviz"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// runnerFactory builds a pipeline runner. withLedger is false for commands
// that render raw coordinates and never touch the blockchain. The returned
// func releases connections and must always be called.
type runnerFactory func(ctx context.Context, withLedger bool) (*pipeline.Runner, func(), error)

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	configPath string
	newRunner  runnerFactory
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{Logger: newLogger(w, level)}
	c.newRunner = c.buildRunner
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "signalviz draws the reach of FOAM signals on a map",
		Long: `signalviz renders a FOAM signal as a translucent dome over a static map,
sized to the signal's radius and standing on its position.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $"+config.ConfigPathEnvVar+" or ./signalviz.yaml)")

	root.AddCommand(c.signalCommand())
	root.AddCommand(c.placeCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// buildRunner wires the production collaborators from configuration.
func (c *CLI) buildRunner(ctx context.Context, withLedger bool) (*pipeline.Runner, func(), error) {
	noop := func() {}

	cfg, err := config.Load(config.LoadOptions{ConfigPath: c.configPath})
	if err != nil {
		return nil, noop, err
	}
	if err := cfg.Mapbox.RequireToken(); err != nil {
		return nil, noop, err
	}
	c.Logger.Debug("loaded config",
		"size", cfg.Size(),
		"pitch", cfg.Mapbox.Pitch,
		"timeout", cfg.HTTP.Timeout)

	httpClient := integrations.NewHTTPClient(cfg.HTTP.Timeout)

	var beacon image.Image
	if cfg.Graphics.BeaconPath != "" {
		if beacon, err = layers.LoadSprite(cfg.Graphics.BeaconPath); err != nil {
			return nil, noop, err
		}
	}
	styles := compositor.Styles{
		Under:  cfg.Mapbox.StyleUnder,
		Roads:  cfg.Mapbox.StyleRoads,
		Labels: cfg.Mapbox.StyleLabels,
	}
	c.Logger.Debug("map styles", "styles", styles)
	comp := compositor.New(mapbox.NewClient(cfg.MapboxClient(), httpClient), compositor.Options{
		Styles:       styles,
		Beacon:       beacon,
		DomeColor:    cfg.DomeRGBA(),
		Transparency: cfg.Graphics.Transparency,
	})

	geo := pipeline.Geometry{
		Size:        cfg.Size(),
		Pitch:       cfg.Mapbox.Pitch,
		Calibration: cfg.GeometryCalibration(),
	}

	var resolver pipeline.Resolver
	cleanup := noop
	if withLedger {
		endpoint, err := cfg.Ledger.Endpoint()
		if err != nil {
			return nil, noop, err
		}
		contract, err := ledger.Dial(ctx, endpoint, cfg.Ledger.Contract, cfg.Ledger.ABIPath)
		if err != nil {
			return nil, noop, err
		}
		cleanup = contract.Close
		c.Logger.Debug("connected to ledger", "contract", contract.Address().Hex())
		resolver = signal.NewResolver(contract, foam.NewClient(cfg.Geocoder.BaseURL, httpClient))
	}

	return pipeline.NewRunner(resolver, comp, geo, c.Logger), cleanup, nil
}
