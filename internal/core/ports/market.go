package ports

import (
	"context"
	"math/big"
)

// Market is the interface of the external auction protocol, treated as an
// opaque service: orders are registered with InitiateAuction and their
// results fetched with SettleAuction once the auction has ended.
type Market interface {
	// Address returns the account the market pulls sell tokens from, to be
	// granted a spending approval before initiating an auction.
	Address() string
	// InitiateAuction registers an order and returns the market's opaque
	// auction identifier. Amounts are in native smallest units.
	InitiateAuction(
		ctx context.Context,
		sellAsset, buyAsset string,
		cancelDeadline, endTime int64,
		sellAmount, minBuyAmount *big.Int,
	) (uint64, error)
	// SettleAuction returns the settlement value of an ended auction,
	// encoded as two packed 96-bit amounts: low word sold, high word bought.
	SettleAuction(ctx context.Context, auctionId uint64) (*big.Int, error)
}
