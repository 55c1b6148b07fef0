// Package mapbox fetches rendered map layers from the Mapbox Static Images API.
//
// A signal image stacks three styles of the same view: the base ("under")
// style, a transparent roads overlay and a transparent labels overlay. All
// three are requested with identical camera parameters so they line up pixel
// for pixel.
package mapbox

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/foamviz/signalviz/pkg/errors"
	"github.com/foamviz/signalviz/pkg/geometry"
	"github.com/foamviz/signalviz/pkg/integrations"
)

// DefaultBaseURL is the public Mapbox API endpoint.
const DefaultBaseURL = "https://api.mapbox.com"

// Config describes the camera and account used for every request.
type Config struct {
	BaseURL     string
	Owner       string
	Token       string
	Attribution bool
	Logo        bool
	Pitch       float64 // degrees
	Bearing     float64 // degrees
	Size        geometry.Size
}

// Client fetches static style images.
type Client struct {
	*integrations.Client
	cfg Config
}

// NewClient creates a Mapbox client sending requests through f.
func NewClient(cfg Config, f integrations.Fetcher) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		Client: integrations.NewClient(f, "mapbox", nil),
		cfg:    cfg,
	}
}

// FetchStyle renders style centred on coords at zoom and returns the encoded
// image bytes. A non-200 answer fails with EXTERNAL_SERVICE.
func (c *Client) FetchStyle(ctx context.Context, coords geometry.Coordinates, zoom float64, style string) ([]byte, error) {
	if style == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mapbox style id is empty")
	}
	u, err := c.StyleURL(coords, zoom, style)
	if err != nil {
		return nil, err
	}
	data, err := c.GetBytes(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch style %s: %w", style, err)
	}
	return data, nil
}

// StyleURL builds the static image URL for style.
//
//	{base}/styles/v1/{owner}/{style}/static/{lon},{lat},{zoom},{bearing},{pitch}/{w}x{h}
func (c *Client) StyleURL(coords geometry.Coordinates, zoom float64, style string) (string, error) {
	camera := fmt.Sprintf("%s,%s,%s,%s,%s",
		formatFloat(coords.Lon), formatFloat(coords.Lat), formatFloat(zoom),
		formatFloat(c.cfg.Bearing), formatFloat(c.cfg.Pitch))
	dims := fmt.Sprintf("%dx%d", c.cfg.Size.Width, c.cfg.Size.Height)

	u, err := integrations.JoinURL(c.cfg.BaseURL, "styles", "v1", c.cfg.Owner, style, "static", camera, dims)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "mapbox base url %q", c.cfg.BaseURL)
	}

	q := url.Values{}
	q.Set("attribution", strconv.FormatBool(c.cfg.Attribution))
	q.Set("logo", strconv.FormatBool(c.cfg.Logo))
	q.Set("access_token", c.cfg.Token)
	return u + "?" + q.Encode(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
