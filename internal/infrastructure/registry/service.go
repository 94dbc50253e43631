// Package registry provides the config-backed implementation of the
// protocol registry ("Main"): the single place vault and trader services
// read protocol-wide parameters from.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/dxganta/protocol/pkg/fixedpoint"
)

// ValueFn computes the current total fiat value of all protocol assets.
type ValueFn func(ctx context.Context) (fixedpoint.Fix, error)

// Options collects the protocol parameters served by the registry.
type Options struct {
	MaxAuctionSize          fixedpoint.Fix
	MinRevenueAuctionSize   fixedpoint.Fix
	MaxTradeSlippage        fixedpoint.Fix
	DefaultingFiatcoinPrice fixedpoint.Fix
	AuctionPeriod           time.Duration
	DefaultDelay            time.Duration
	ManagerAddress          string
}

// Service implements the ports.Registry interface on top of static
// configuration and a pluggable valuation function.
type Service struct {
	opts   Options
	valuer ValueFn
}

// NewService validates the options and returns a registry service. The
// valuation function is wired separately with SetValuer since it usually
// closes over a service constructed after the registry.
func NewService(opts Options) (*Service, error) {
	one := fixedpoint.One()
	zero := fixedpoint.Zero()

	if opts.MaxAuctionSize.Lte(zero) || opts.MaxAuctionSize.Gt(one) {
		return nil, fmt.Errorf("max auction size must be in (0, 1]")
	}
	if opts.MinRevenueAuctionSize.Lt(zero) ||
		opts.MinRevenueAuctionSize.Gt(opts.MaxAuctionSize) {
		return nil, fmt.Errorf(
			"min revenue auction size must be in [0, max auction size]",
		)
	}
	if opts.MaxTradeSlippage.Lt(zero) || opts.MaxTradeSlippage.Gte(one) {
		return nil, fmt.Errorf("max trade slippage must be in [0, 1)")
	}
	if opts.DefaultingFiatcoinPrice.Lte(zero) {
		return nil, fmt.Errorf("defaulting fiatcoin price must be positive")
	}
	if opts.AuctionPeriod <= 0 {
		return nil, fmt.Errorf("auction period must be positive")
	}
	if opts.DefaultDelay <= 0 {
		return nil, fmt.Errorf("default delay must be positive")
	}
	if opts.ManagerAddress == "" {
		return nil, fmt.Errorf("missing manager address")
	}

	return &Service{opts: opts}, nil
}

// SetValuer installs the total-asset-value function. This is the explicit
// administrative operation repointing the registry's valuation source.
func (s *Service) SetValuer(valuer ValueFn) {
	s.valuer = valuer
}

// TotalAssetValue returns the current fiat value of all protocol assets.
func (s *Service) TotalAssetValue(ctx context.Context) (fixedpoint.Fix, error) {
	if s.valuer == nil {
		return fixedpoint.Fix{}, fmt.Errorf("registry has no valuation source")
	}
	return s.valuer(ctx)
}

// MaxAuctionSize returns the max auction size fraction.
func (s *Service) MaxAuctionSize() fixedpoint.Fix { return s.opts.MaxAuctionSize }

// MinRevenueAuctionSize returns the dust threshold fraction.
func (s *Service) MinRevenueAuctionSize() fixedpoint.Fix {
	return s.opts.MinRevenueAuctionSize
}

// MaxTradeSlippage returns the max trade slippage fraction.
func (s *Service) MaxTradeSlippage() fixedpoint.Fix { return s.opts.MaxTradeSlippage }

// AuctionPeriod returns how long auctions stay open.
func (s *Service) AuctionPeriod() time.Duration { return s.opts.AuctionPeriod }

// DefaultDelay returns how long a collateral stays IFFY before defaulting.
func (s *Service) DefaultDelay() time.Duration { return s.opts.DefaultDelay }

// DefaultingFiatcoinPrice returns the peg-failure price threshold.
func (s *Service) DefaultingFiatcoinPrice() fixedpoint.Fix {
	return s.opts.DefaultingFiatcoinPrice
}

// ManagerAddress returns the account reward sweeps are forwarded to.
func (s *Service) ManagerAddress() string { return s.opts.ManagerAddress }
