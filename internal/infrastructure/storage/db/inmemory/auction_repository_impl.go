package inmemory

import (
	"context"
	"sync"

	"github.com/dxganta/protocol/internal/core/domain"
)

// AuctionRepositoryImpl represents an in memory append-only auction log.
// Entries are never removed, so indices are stable.
type AuctionRepositoryImpl struct {
	auctions []*domain.Auction
	lock     *sync.RWMutex
}

// NewAuctionRepositoryImpl returns a new empty AuctionRepositoryImpl.
func NewAuctionRepositoryImpl() *AuctionRepositoryImpl {
	return &AuctionRepositoryImpl{
		auctions: []*domain.Auction{},
		lock:     &sync.RWMutex{},
	}
}

// AddAuction appends an auction to the log and returns its stable index.
func (r *AuctionRepositoryImpl) AddAuction(
	_ context.Context, auction *domain.Auction,
) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.auctions = append(r.auctions, auction)
	return len(r.auctions) - 1, nil
}

// GetAuction returns the auction at the given index.
func (r *AuctionRepositoryImpl) GetAuction(
	_ context.Context, index int,
) (*domain.Auction, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.getAuction(index)
}

// GetAllAuctions returns all auctions in append order.
func (r *AuctionRepositoryImpl) GetAllAuctions(
	_ context.Context,
) ([]domain.Auction, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	auctions := make([]domain.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		auctions = append(auctions, *a)
	}
	return auctions, nil
}

// UpdateAuction updates the auction at the given index through an update
// closure.
func (r *AuctionRepositoryImpl) UpdateAuction(
	_ context.Context,
	index int, updateFn func(a *domain.Auction) (*domain.Auction, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	currentAuction, err := r.getAuction(index)
	if err != nil {
		return err
	}

	updatedAuction, err := updateFn(currentAuction)
	if err != nil {
		return err
	}

	r.auctions[index] = updatedAuction
	return nil
}

func (r *AuctionRepositoryImpl) getAuction(index int) (*domain.Auction, error) {
	if index < 0 || index >= len(r.auctions) {
		return nil, ErrAuctionNotFound
	}
	return r.auctions[index], nil
}
