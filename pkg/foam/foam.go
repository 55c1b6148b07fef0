// Package foam talks to the FOAM map API, which knows where each signal's
// Crypto-Spatial Coordinate (CST) points on the globe.
package foam

import (
	"context"
	"fmt"
	"strings"

	"github.com/foamviz/signalviz/pkg/errors"
	"github.com/foamviz/signalviz/pkg/integrations"
)

// DefaultBaseURL is the public FOAM map API.
const DefaultBaseURL = "https://map-api-direct.foam.space"

// SignalDetails is the subset of /signal/details the renderer needs.
type SignalDetails struct {
	Geohash string `json:"geohash"`
}

// Client resolves CSTs to geohashes.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a FOAM client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, f integrations.Fetcher) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(f, "foam", map[string]string{"Accept": "application/json"}),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SignalDetails fetches GET /signal/details/{cst}.
func (c *Client) SignalDetails(ctx context.Context, cst string) (*SignalDetails, error) {
	if cst == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cst cannot be empty")
	}
	u, err := integrations.JoinURL(c.baseURL, "signal", "details", cst)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "geocoder base url %q", c.baseURL)
	}

	var details SignalDetails
	if err := c.Get(ctx, u, &details); err != nil {
		return nil, fmt.Errorf("signal details for %s: %w", cst, err)
	}
	if details.Geohash == "" {
		return nil, errors.ExternalService(nil, "foam: no geohash for cst %s", cst)
	}
	return &details, nil
}
