package domain

import (
	"context"

	"github.com/dxganta/protocol/pkg/fixedpoint"
)

// Asset identifies a collateral token along with the bits needed to price it
// and convert between whole tokens and smallest units.
type Asset struct {
	// Address is the token contract address, used as the asset identifier.
	Address string
	Symbol  string
	// Decimals is the token's native precision.
	Decimals uint32
	// PriceSource names the oracle feed to consult for leaf assets.
	PriceSource string
}

// UnitScale returns 10^Decimals, the number of smallest units per whole token.
func (a Asset) UnitScale() uint64 {
	n := uint64(1)
	for i := uint32(0); i < a.Decimals; i++ {
		n *= 10
	}
	return n
}

// PriceOracle yields the fiat value of one whole token of an asset.
// Implementations must be treated as failing when they report a zero price.
type PriceOracle interface {
	Consult(ctx context.Context, source, asset string) (fixedpoint.Fix, error)
}

// RateSource yields the redemption rate between a derivative collateral token
// and its immediate underlying asset.
type RateSource interface {
	RedemptionRate(ctx context.Context, asset string) (fixedpoint.Fix, error)
}
