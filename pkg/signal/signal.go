// Package signal resolves a FOAM signal identifier into everything needed to
// draw it: where it is and how far it reaches.
//
// Resolution is a fixed sequence of calls. The ledger is read first; a token
// that does not exist ends resolution with NOT_FOUND before the geocoder is
// contacted. The ledger only stores the signal's CST, so the textual geohash
// comes from the geocoder and is decoded locally into the cell centre.
package signal

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/mmcloughlin/geohash"

	"github.com/foamviz/signalviz/pkg/errors"
	"github.com/foamviz/signalviz/pkg/foam"
	"github.com/foamviz/signalviz/pkg/geometry"
	"github.com/foamviz/signalviz/pkg/ledger"
)

// Record is a resolved signal. It is read-only and lives for one render.
type Record struct {
	ID           *big.Int
	Exists       bool
	RadiusMeters float64
	Geohash      string
	MintTime     time.Time
	BurnTime     time.Time
	CST          string
	StakedWei    *big.Int
	Coordinates  geometry.Coordinates
}

// Ledger reads token state. *ledger.Contract satisfies it.
type Ledger interface {
	Read(ctx context.Context, id *big.Int) (*ledger.Token, error)
}

// Geocoder maps a CST to its geohash. *foam.Client satisfies it.
type Geocoder interface {
	SignalDetails(ctx context.Context, cst string) (*foam.SignalDetails, error)
}

// Resolver combines the ledger and geocoder lookups.
type Resolver struct {
	ledger   Ledger
	geocoder Geocoder
}

// NewResolver creates a Resolver.
func NewResolver(l Ledger, g Geocoder) *Resolver {
	return &Resolver{ledger: l, geocoder: g}
}

// Resolve looks up signal id. It performs no retries and caches nothing.
func (r *Resolver) Resolve(ctx context.Context, id *big.Int) (*Record, error) {
	if id == nil || id.Sign() < 0 {
		return nil, errors.New(errors.ErrCodeInvalidSignalID, "signal id must be a non-negative integer")
	}

	tok, err := r.ledger.Read(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read signal %s: %w", id, err)
	}
	if !tok.Exists {
		return nil, errors.NotFound("signal %s does not exist", id)
	}

	if tok.Radius == nil {
		return nil, errors.ExternalService(nil, "signal %s has no radius", id)
	}

	details, err := r.geocoder.SignalDetails(ctx, tok.CST)
	if err != nil {
		return nil, fmt.Errorf("geocode signal %s: %w", id, err)
	}
	coords, err := Decode(details.Geohash)
	if err != nil {
		return nil, err
	}

	radius, _ := new(big.Float).SetInt(tok.Radius).Float64()
	return &Record{
		ID:           new(big.Int).Set(id),
		Exists:       true,
		RadiusMeters: radius,
		Geohash:      details.Geohash,
		MintTime:     tok.MintedOn,
		BurnTime:     tok.BurntOn,
		CST:          tok.CST,
		StakedWei:    tok.Stake,
		Coordinates:  coords,
	}, nil
}

// Decode returns the centre of a geohash cell.
func Decode(hash string) (geometry.Coordinates, error) {
	if hash == "" {
		return geometry.Coordinates{}, errors.ExternalService(nil, "geocoder returned an empty geohash")
	}
	if err := geohash.Validate(hash); err != nil {
		return geometry.Coordinates{}, errors.ExternalService(err, "geocoder returned invalid geohash %q", hash)
	}
	lat, lon := geohash.Decode(hash)
	return geometry.Coordinates{Lat: lat, Lon: lon}, nil
}
