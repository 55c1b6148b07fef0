// Package config loads signalviz settings.
//
// Settings are layered, later layers overriding earlier ones:
//
//  1. Built-in defaults
//  2. YAML file (--config, SIGNALVIZ_CONFIG, or signalviz.yaml in the working directory)
//  3. .env file, if present
//  4. Process environment
//
// Secrets usually come from the environment: MAPBOX_TOKEN and
// WEB3_INFURA_PROJECT_ID keep their conventional names. Any other setting can
// be overridden as SIGNALVIZ_<SECTION>__<KEY>, e.g. SIGNALVIZ_GRAPHICS__WIDTH=800.
//
// A loaded Config is validated once and must be treated as read-only.
package config

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/foamviz/signalviz/pkg/errors"
	"github.com/foamviz/signalviz/pkg/geometry"
	"github.com/foamviz/signalviz/pkg/mapbox"
)

// Config is the complete runtime configuration.
type Config struct {
	Ledger      LedgerConfig      `koanf:"ledger"`
	Geocoder    GeocoderConfig    `koanf:"geocoder"`
	Mapbox      MapboxConfig      `koanf:"mapbox"`
	Calibration CalibrationConfig `koanf:"calibration"`
	Graphics    GraphicsConfig    `koanf:"graphics"`
	HTTP        HTTPConfig        `koanf:"http"`
}

// LedgerConfig locates the SignalToken contract.
type LedgerConfig struct {
	Contract        string `koanf:"contract" validate:"required,eth_addr"`
	ABIPath         string `koanf:"abi_path" validate:"omitempty,file"`
	RPCURL          string `koanf:"rpc_url" validate:"omitempty,url"`
	InfuraProjectID string `koanf:"infura_project_id"`
}

// GeocoderConfig locates the FOAM map API.
type GeocoderConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
}

// MapboxConfig describes the static map account, styles and camera.
type MapboxConfig struct {
	BaseURL     string  `koanf:"base_url" validate:"required,url"`
	Owner       string  `koanf:"owner" validate:"required"`
	StyleUnder  string  `koanf:"style_under" validate:"required"`
	StyleRoads  string  `koanf:"style_roads" validate:"required"`
	StyleLabels string  `koanf:"style_labels" validate:"required"`
	Token       string  `koanf:"token"`
	Attribution bool    `koanf:"attribution"`
	Logo        bool    `koanf:"logo"`
	Pitch       float64 `koanf:"pitch" validate:"gte=0,lte=60"`
	Bearing     float64 `koanf:"bearing" validate:"gte=0,lt=360"`
}

// CalibrationConfig controls the meters-to-pixels conversion.
type CalibrationConfig struct {
	MinRadiusMeters    float64 `koanf:"min_radius_meters" validate:"gt=0"`
	MaxRadiusMeters    float64 `koanf:"max_radius_meters" validate:"gtfield=MinRadiusMeters"`
	MinRadiusRate      float64 `koanf:"min_radius_rate" validate:"gt=0"`
	MaxRadiusRate      float64 `koanf:"max_radius_rate" validate:"gtfield=MinRadiusRate"`
	EarthCircumference float64 `koanf:"earth_circumference" validate:"gt=0"`
}

// GraphicsConfig controls the canvas and drawn layers.
type GraphicsConfig struct {
	Width        int     `koanf:"width" validate:"gte=1,lte=1280"`
	Height       int     `koanf:"height" validate:"gte=1,lte=1280"`
	DomeColor    string  `koanf:"dome_color" validate:"hexcolor"`
	Transparency float64 `koanf:"transparency" validate:"gte=0,lte=1"`
	BeaconPath   string  `koanf:"beacon_path" validate:"omitempty,file"`
}

// HTTPConfig controls outbound requests.
type HTTPConfig struct {
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Ledger: LedgerConfig{
			Contract: "0x36f16a0d35B866CdD0f3C3FA39e2Ba8F48b099d2",
		},
		Geocoder: GeocoderConfig{
			BaseURL: "https://map-api-direct.foam.space",
		},
		Mapbox: MapboxConfig{
			BaseURL:     mapbox.DefaultBaseURL,
			Owner:       "mihalotric",
			StyleUnder:  "ck6s9r9eo159o1imddog74tk7",
			StyleRoads:  "ck72j8rpq00z41jsdgw23c08f",
			StyleLabels: "ck6s9wvs21d6h1invq8ehzo4d",
			Pitch:       50,
			Bearing:     0,
		},
		Calibration: CalibrationConfig{
			MinRadiusMeters:    geometry.DefaultCalibration.MinRadiusMeters,
			MaxRadiusMeters:    geometry.DefaultCalibration.MaxRadiusMeters,
			MinRadiusRate:      geometry.DefaultCalibration.MinRadiusRate,
			MaxRadiusRate:      geometry.DefaultCalibration.MaxRadiusRate,
			EarthCircumference: geometry.DefaultCalibration.EarthCircumference,
		},
		Graphics: GraphicsConfig{
			Width:        1000,
			Height:       750,
			DomeColor:    "#ffffff",
			Transparency: 0.15,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Endpoint returns the Ethereum endpoint: rpc_url if set, otherwise Infura
// mainnet for the configured project.
func (c LedgerConfig) Endpoint() (string, error) {
	if c.RPCURL != "" {
		return c.RPCURL, nil
	}
	if c.InfuraProjectID == "" {
		return "", errors.New(errors.ErrCodeInvalidConfig, "set WEB3_INFURA_PROJECT_ID or ledger.rpc_url")
	}
	return "https://mainnet.infura.io/v3/" + c.InfuraProjectID, nil
}

// RequireToken fails when no Mapbox access token is configured.
func (c MapboxConfig) RequireToken() error {
	if strings.TrimSpace(c.Token) == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "MAPBOX_TOKEN is not set")
	}
	return nil
}

// MapboxClient converts the mapbox section into mapbox client settings.
func (c *Config) MapboxClient() mapbox.Config {
	return mapbox.Config{
		BaseURL:     c.Mapbox.BaseURL,
		Owner:       c.Mapbox.Owner,
		Token:       c.Mapbox.Token,
		Attribution: c.Mapbox.Attribution,
		Logo:        c.Mapbox.Logo,
		Pitch:       c.Mapbox.Pitch,
		Bearing:     c.Mapbox.Bearing,
		Size:        c.Size(),
	}
}

// Size returns the canvas size.
func (c *Config) Size() geometry.Size {
	return geometry.Size{Width: c.Graphics.Width, Height: c.Graphics.Height}
}

// GeometryCalibration converts the calibration section.
func (c *Config) GeometryCalibration() geometry.Calibration {
	return geometry.Calibration{
		MinRadiusMeters:    c.Calibration.MinRadiusMeters,
		MaxRadiusMeters:    c.Calibration.MaxRadiusMeters,
		MinRadiusRate:      c.Calibration.MinRadiusRate,
		MaxRadiusRate:      c.Calibration.MaxRadiusRate,
		EarthCircumference: c.Calibration.EarthCircumference,
	}
}

// DomeRGBA parses the dome color. Validation guarantees the format.
func (c *Config) DomeRGBA() color.RGBA {
	return parseHexColor(c.Graphics.DomeColor)
}

// parseHexColor accepts #rgb, #rgba, #rrggbb and #rrggbbaa. Alpha is ignored:
// the dome's opacity comes from Transparency.
func parseHexColor(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 4 {
		s = s[:3]
	}
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	var r, g, b uint8
	if len(s) >= 6 {
		fmt.Sscanf(s[:6], "%02x%02x%02x", &r, &g, &b)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
