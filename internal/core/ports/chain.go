package ports

import "context"

// BlockSource supplies the externally-driven notion of time passing: the
// monitor sweeps once per block rather than sleeping.
type BlockSource interface {
	// BestBlock returns the current chain height and its unix timestamp.
	BestBlock(ctx context.Context) (height uint64, timestamp int64, err error)
}
