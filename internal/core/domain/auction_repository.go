package domain

import "context"

// AuctionRepository is the abstraction for the append-only auction log.
// Indices are stable: entries are only ever appended, never removed or
// reindexed, so an index handed out by AddAuction stays valid forever.
type AuctionRepository interface {
	// AddAuction appends an auction to the log and returns its stable index.
	AddAuction(ctx context.Context, auction *Auction) (int, error)
	// GetAuction returns the auction at the given index.
	GetAuction(ctx context.Context, index int) (*Auction, error)
	// GetAllAuctions returns all auctions in append order.
	GetAllAuctions(ctx context.Context) ([]Auction, error)
	// UpdateAuction updates the auction at the given index through a
	// transactional closure.
	UpdateAuction(
		ctx context.Context,
		index int, updateFn func(a *Auction) (*Auction, error),
	) error
}
