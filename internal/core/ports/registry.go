package ports

import (
	"context"
	"time"

	"github.com/dxganta/protocol/pkg/fixedpoint"
)

// Registry supplies the protocol-wide configuration read by the vault and
// trader services. It abstracts the "Main" registry contract: components
// hold an explicit handle set at wiring time, replaceable only through an
// administrative operation.
type Registry interface {
	// TotalAssetValue returns the current fiat value of all protocol assets.
	TotalAssetValue(ctx context.Context) (fixedpoint.Fix, error)
	// MaxAuctionSize is the fraction of total asset value a single auction
	// may sell at most.
	MaxAuctionSize() fixedpoint.Fix
	// MinRevenueAuctionSize is the fraction of total asset value below which
	// a trade is dust and not worth auctioning.
	MinRevenueAuctionSize() fixedpoint.Fix
	// MaxTradeSlippage is the worst acceptable fractional discount on the
	// expected buy amount.
	MaxTradeSlippage() fixedpoint.Fix
	// AuctionPeriod is how long an auction stays open.
	AuctionPeriod() time.Duration
	// DefaultDelay is how long a collateral stays IFFY before defaulting.
	DefaultDelay() time.Duration
	// DefaultingFiatcoinPrice is the peg-failure price threshold.
	DefaultingFiatcoinPrice() fixedpoint.Fix
	// ManagerAddress is the account reward sweeps are forwarded to.
	ManagerAddress() string
}
