package simulator

import (
	"context"
	"errors"
	"math/big"
	"sync"
)

var (
	// ErrAuctionUnknown is thrown when settling an auction id the market
	// never issued.
	ErrAuctionUnknown = errors.New("unknown auction id")
	// ErrAuctionStillRunning is thrown when settling before the end time.
	ErrAuctionStillRunning = errors.New("auction has not ended yet")
)

type order struct {
	sellAmount   *big.Int
	minBuyAmount *big.Int
	endTime      int64
}

// Market is an in-memory auction market that fills every order exactly at
// its minimum buy amount once the end time has passed.
type Market struct {
	address string
	orders  map[uint64]order
	nextId  uint64
	now     func() int64

	lock *sync.Mutex
}

// NewMarket returns a market settling against the given clock.
func NewMarket(address string, now func() int64) *Market {
	return &Market{
		address: address,
		orders:  map[uint64]order{},
		nextId:  1,
		now:     now,
		lock:    &sync.Mutex{},
	}
}

// Address returns the account the market pulls sell tokens from.
func (m *Market) Address() string { return m.address }

// InitiateAuction registers an order and returns an opaque auction id.
func (m *Market) InitiateAuction(
	_ context.Context,
	_, _ string,
	_, endTime int64,
	sellAmount, minBuyAmount *big.Int,
) (uint64, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	id := m.nextId
	m.nextId++
	m.orders[id] = order{
		sellAmount:   new(big.Int).Set(sellAmount),
		minBuyAmount: new(big.Int).Set(minBuyAmount),
		endTime:      endTime,
	}
	return id, nil
}

// SettleAuction returns the clearing amounts of an ended auction packed as
// two 96-bit words: low word sold, high word bought.
func (m *Market) SettleAuction(
	_ context.Context, auctionId uint64,
) (*big.Int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	o, ok := m.orders[auctionId]
	if !ok {
		return nil, ErrAuctionUnknown
	}
	if m.now() < o.endTime {
		return nil, ErrAuctionStillRunning
	}

	encoded := new(big.Int).Lsh(o.minBuyAmount, 96)
	encoded.Or(encoded, o.sellAmount)
	return encoded, nil
}

// BlockSource is an in-memory chain clock advancing one block per call to
// AdvanceBlock.
type BlockSource struct {
	height    uint64
	timestamp int64
	blockTime int64

	lock *sync.Mutex
}

// NewBlockSource returns a chain clock starting at the given height and
// timestamp, advancing by blockTime seconds per block.
func NewBlockSource(height uint64, timestamp, blockTime int64) *BlockSource {
	return &BlockSource{
		height:    height,
		timestamp: timestamp,
		blockTime: blockTime,
		lock:      &sync.Mutex{},
	}
}

// BestBlock returns the current height and its unix timestamp.
func (b *BlockSource) BestBlock(_ context.Context) (uint64, int64, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.height, b.timestamp, nil
}

// AdvanceBlock moves the chain forward one block.
func (b *BlockSource) AdvanceBlock() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.height++
	b.timestamp += b.blockTime
}

// Now returns the current chain timestamp.
func (b *BlockSource) Now() int64 {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.timestamp
}
