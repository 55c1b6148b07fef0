// Package pkg holds the libraries behind signalviz, which draws a FOAM
// signal's coverage as a translucent dome standing on a static map.
//
// # Data flow
//
//	signal id
//	    ↓
//	[ledger] token state over eth_call  +  [foam] geohash for the CST
//	    ↓
//	[signal] Record with radius and coordinates
//	    ↓
//	[geometry] pixel radius, zoom and dome boxes
//	    ↓
//	[mapbox] three style layers  →  [compositor] + [layers] dome, beacon, glare
//	    ↓
//	PNG (file, viewer, HTTP body)
//
// [pipeline] runs the steps above and is what the CLI calls:
//
//	runner := pipeline.NewRunner(resolver, comp, geo, logger)
//	res, err := runner.RenderFromSignal(ctx, big.NewInt(1234), pipeline.Output{
//	    SaveAs: pipeline.DefaultSavePath(big.NewInt(1234)),
//	})
//
// Supporting packages: [config] loads YAML, .env and environment settings,
// [errors] carries machine-readable codes, [integrations] is the shared REST
// client and [observability] exposes hooks for metrics.
//
// [ledger]: https://pkg.go.dev/github.com/foamviz/signalviz/pkg/ledger
// [foam]: https://pkg.go.dev/github.com/foamviz/signalviz/pkg/foam
// [signal]: https://pkg.go.dev/github.com/foamviz/signalviz/pkg/signal
// [geometry]: https://pkg.go.dev/github.com/foamviz/signalviz/pkg/geometry
// [mapbox]: https://pkg.go.dev/github.com/foamviz/signalviz/pkg/mapbox
// [compositor]: https://pkg.go.dev/github.com/foamviz/signalviz/pkg/compositor
// [layers]: https://pkg.go.dev/github.com/foamviz/signalviz/pkg/layers
// [pipeline]: https://pkg.go.dev/github.com/foamviz/signalviz/pkg/pipeline
// [config]: https://pkg.go.dev/github.com/foamviz/signalviz/pkg/config
// [errors]: https://pkg.go.dev/github.com/foamviz/signalviz/pkg/errors
// [integrations]: https://pkg.go.dev/github.com/foamviz/signalviz/pkg/integrations
// [observability]: https://pkg.go.dev/github.com/foamviz/signalviz/pkg/observability
package pkg
