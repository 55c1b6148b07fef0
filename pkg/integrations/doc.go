// Package integrations provides the shared HTTP plumbing for the REST services
// signalviz talks to.
//
// # Overview
//
// Each service has its own subpackage built on [Client]:
//
//   - [foam]: FOAM map API, resolves a Crypto-Spatial Coordinate to a geohash
//   - [mapbox]: Mapbox Static Images API, renders the base map layers
//
// # Client Pattern
//
//	client := mapbox.NewClient(cfg.Mapbox, integrations.NewHTTPClient(30*time.Second))
//	png, err := client.FetchStyle(ctx, coords, zoom, cfg.Mapbox.StyleUnder)
//
// Requests are made exactly once: there is no retry and no response cache.
// Any transport failure or non-200 status becomes an EXTERNAL_SERVICE
// [errors.Error]; 404 additionally matches [ErrNotFound].
//
// # Test Doubles
//
// [Client] sends requests through a [Fetcher], which *http.Client satisfies.
// Tests pass an httptest server's client or any function wrapped in
// [FetcherFunc] to serve deterministic fixtures.
//
// [foam]: github.com/foamviz/signalviz/pkg/foam
// [mapbox]: github.com/foamviz/signalviz/pkg/mapbox
// [errors.Error]: github.com/foamviz/signalviz/pkg/errors.Error
package integrations
