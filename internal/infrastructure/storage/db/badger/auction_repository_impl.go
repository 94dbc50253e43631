package dbbadger

import (
	"context"
	"errors"
	"sync"

	"github.com/timshannon/badgerhold/v4"

	"github.com/dxganta/protocol/internal/core/domain"
)

type auctionRepositoryImpl struct {
	db *DbManager

	// nextIndex tracks the append position; the log is append-only so it
	// equals the number of stored auctions.
	nextIndex int
	lock      *sync.Mutex
}

// NewAuctionRepositoryImpl returns a badger implementation of the
// append-only AuctionRepository interface.
func NewAuctionRepositoryImpl(db *DbManager) (domain.AuctionRepository, error) {
	count, err := db.AuctionStore.Count(&domain.Auction{}, nil)
	if err != nil {
		return nil, err
	}

	return &auctionRepositoryImpl{
		db:        db,
		nextIndex: int(count),
		lock:      &sync.Mutex{},
	}, nil
}

func (r *auctionRepositoryImpl) AddAuction(
	_ context.Context, auction *domain.Auction,
) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	index := r.nextIndex
	if err := r.db.AuctionStore.Insert(uint64(index), *auction); err != nil {
		return -1, err
	}
	r.nextIndex++
	return index, nil
}

func (r *auctionRepositoryImpl) GetAuction(
	_ context.Context, index int,
) (*domain.Auction, error) {
	return r.getAuction(index)
}

func (r *auctionRepositoryImpl) GetAllAuctions(
	_ context.Context,
) ([]domain.Auction, error) {
	r.lock.Lock()
	size := r.nextIndex
	r.lock.Unlock()

	auctions := make([]domain.Auction, 0, size)
	for i := 0; i < size; i++ {
		auction, err := r.getAuction(i)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, *auction)
	}
	return auctions, nil
}

func (r *auctionRepositoryImpl) UpdateAuction(
	_ context.Context,
	index int, updateFn func(a *domain.Auction) (*domain.Auction, error),
) error {
	currentAuction, err := r.getAuction(index)
	if err != nil {
		return err
	}

	updatedAuction, err := updateFn(currentAuction)
	if err != nil {
		return err
	}

	return r.db.AuctionStore.Update(uint64(index), *updatedAuction)
}

func (r *auctionRepositoryImpl) getAuction(index int) (*domain.Auction, error) {
	if index < 0 {
		return nil, ErrAuctionNotFound
	}

	var auction domain.Auction
	if err := r.db.AuctionStore.Get(uint64(index), &auction); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrAuctionNotFound
		}
		return nil, err
	}
	return &auction, nil
}
