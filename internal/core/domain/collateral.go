package domain

import (
	"context"
	"math"
	"time"

	"github.com/dxganta/protocol/pkg/fixedpoint"
)

// NeverDefault is the sentinel WhenDefault value of a sound collateral.
const NeverDefault = int64(math.MaxInt64)

// CollateralStatus represents the different statuses that a collateral can
// assume, derived from WhenDefault and the current time.
type CollateralStatus int

const (
	// StatusSound means no default is pending.
	StatusSound CollateralStatus = iota
	// StatusIffy means a default is scheduled in the future and may still be
	// cleared if the underlying price recovers.
	StatusIffy
	// StatusDefaulted means the default time has passed. It is terminal.
	StatusDefaulted
)

func (s CollateralStatus) String() string {
	switch s {
	case StatusSound:
		return "SOUND"
	case StatusIffy:
		return "IFFY"
	case StatusDefaulted:
		return "DEFAULTED"
	default:
		return "UNKNOWN"
	}
}

// DefaultPolicy holds the protocol-wide parameters driving default detection.
type DefaultPolicy struct {
	// Delay is how long a collateral stays IFFY before defaulting once its
	// underlying fiatcoin price drops at or below the threshold.
	Delay time.Duration
	// DefaultingFiatcoinPrice is the fiat price at or below which a fiatcoin
	// is considered to be failing its peg.
	DefaultingFiatcoinPrice fixedpoint.Fix
}

// Collateral is the data structure representing a collateral asset entity
// together with its default-detection state. A nil Underlying marks a leaf
// (fiatcoin) collateral that consults the oracle directly; derivative
// collateral delegates price queries to its underlying, multiplied by the
// per-level redemption rate.
type Collateral struct {
	Asset      Asset
	Underlying *Collateral

	// WhenDefault is the unix time this collateral defaults, or NeverDefault.
	// It only ever moves earlier; once in the past it never changes again.
	WhenDefault int64
	// PrevBlock is the block height UpdateDefaultStatus last ran at.
	PrevBlock uint64
	// PrevRate is the redemption rate observed the last time
	// UpdateDefaultStatus actually ran, however many blocks ago that was.
	PrevRate fixedpoint.Fix
}

// NewCollateral returns a leaf collateral for the given asset.
func NewCollateral(asset Asset) *Collateral {
	return &Collateral{Asset: asset, WhenDefault: NeverDefault}
}

// NewDerivativeCollateral returns a collateral wrapping an underlying one.
func NewDerivativeCollateral(asset Asset, underlying *Collateral) *Collateral {
	return &Collateral{Asset: asset, Underlying: underlying, WhenDefault: NeverDefault}
}

// Status derives the collateral status from WhenDefault and the given time.
func (c *Collateral) Status(now int64) CollateralStatus {
	switch {
	case c.WhenDefault == NeverDefault:
		return StatusSound
	case c.WhenDefault > now:
		return StatusIffy
	default:
		return StatusDefaulted
	}
}

// RedemptionRate returns the rate between this collateral and its immediate
// underlying. Leaf collateral redeems one-to-one by definition.
func (c *Collateral) RedemptionRate(
	ctx context.Context, rates RateSource,
) (fixedpoint.Fix, error) {
	if c.Underlying == nil {
		return fixedpoint.One(), nil
	}
	return rates.RedemptionRate(ctx, c.Asset.Address)
}

// Price returns the fiat value of one whole token of this collateral.
// Derivative collateral is priced as the underlying price multiplied by the
// per-level redemption rate; only leaves query the oracle.
func (c *Collateral) Price(
	ctx context.Context, oracle PriceOracle, rates RateSource,
) (fixedpoint.Fix, error) {
	if c.Underlying == nil {
		return c.consultOracle(ctx, oracle)
	}

	underlyingPrice, err := c.Underlying.Price(ctx, oracle, rates)
	if err != nil {
		return fixedpoint.Fix{}, err
	}
	rate, err := rates.RedemptionRate(ctx, c.Asset.Address)
	if err != nil {
		return fixedpoint.Fix{}, err
	}
	return underlyingPrice.Mul(rate)
}

// FiatPrice returns the fiat price of the fiatcoin at the bottom of the
// delegation chain, without any redemption rate applied.
func (c *Collateral) FiatPrice(
	ctx context.Context, oracle PriceOracle, rates RateSource,
) (fixedpoint.Fix, error) {
	if c.Underlying == nil {
		return c.consultOracle(ctx, oracle)
	}
	return c.Underlying.FiatPrice(ctx, oracle, rates)
}

func (c *Collateral) consultOracle(
	ctx context.Context, oracle PriceOracle,
) (fixedpoint.Fix, error) {
	price, err := oracle.Consult(ctx, c.Asset.PriceSource, c.Asset.Address)
	if err != nil {
		return fixedpoint.Fix{}, err
	}
	if price.IsZero() {
		return fixedpoint.Fix{}, ErrZeroOraclePrice
	}
	return price, nil
}

// UpdateDefaultStatus recomputes the default-detection state machine.
// It is idempotent within a block and a no-op once defaulted. A strictly
// decreasing redemption rate defaults the collateral immediately; a fiatcoin
// price at or below the policy threshold schedules a default after the policy
// delay, cleared again if the price recovers while the default is still in
// the future. PrevRate and PrevBlock are persisted on every evaluated branch.
func (c *Collateral) UpdateDefaultStatus(
	ctx context.Context,
	now int64, block uint64,
	oracle PriceOracle, rates RateSource,
	policy DefaultPolicy,
) error {
	if c.Status(now) == StatusDefaulted {
		return nil
	}
	if block == c.PrevBlock {
		return nil
	}

	rate, err := c.RedemptionRate(ctx, rates)
	if err != nil {
		return err
	}

	if rate.Lt(c.PrevRate) {
		// A falling redemption rate is irreversible evidence of loss.
		c.WhenDefault = now
	} else if c.Status(now) != StatusDefaulted {
		price, err := c.FiatPrice(ctx, oracle, rates)
		if err != nil {
			return err
		}

		if price.Lte(policy.DefaultingFiatcoinPrice) {
			scheduled := now + int64(policy.Delay/time.Second)
			if scheduled < c.WhenDefault {
				c.WhenDefault = scheduled
			}
		} else if c.WhenDefault > now {
			c.WhenDefault = NeverDefault
		}
	}

	c.PrevRate = rate
	c.PrevBlock = block
	return nil
}
