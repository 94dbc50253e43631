package domain_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dxganta/protocol/internal/core/domain"
)

func newTestAuction() *domain.Auction {
	return &domain.Auction{
		SellAsset:    domain.Asset{Address: usdcAddr, Symbol: "USDC", Decimals: 6},
		BuyAsset:     domain.Asset{Address: tusdAddr, Symbol: "TUSD", Decimals: 18},
		SellAmount:   big.NewInt(500),
		MinBuyAmount: big.NewInt(290),
		Status:       domain.AuctionNotYetOpen,
	}
}

func encodeClearing(sold, bought int64) *big.Int {
	encoded := new(big.Int).Lsh(big.NewInt(bought), 96)
	return encoded.Or(encoded, big.NewInt(sold))
}

func TestAuctionLifecycle(t *testing.T) {
	t.Parallel()

	a := newTestAuction()
	a.EndTime = 1000

	require.NoError(t, a.Open(42))
	require.Equal(t, uint64(42), a.ExternalId)
	require.Equal(t, domain.AuctionOpen, a.Status)

	require.NoError(t, a.Close(1000, encodeClearing(500, 300)))
	require.Equal(t, domain.AuctionDone, a.Status)
	require.Equal(t, int64(500), a.ClearingSellAmount.Int64())
	require.Equal(t, int64(300), a.ClearingBuyAmount.Int64())
}

func TestFailingAuctionTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		prepare       func(a *domain.Auction)
		op            func(a *domain.Auction) error
		expectedError error
	}{
		{
			name:    "open_twice",
			prepare: func(a *domain.Auction) { _ = a.Open(1) },
			op: func(a *domain.Auction) error {
				return a.Open(2)
			},
			expectedError: domain.ErrAuctionNotLaunchable,
		},
		{
			name:    "close_not_open",
			prepare: func(a *domain.Auction) {},
			op: func(a *domain.Auction) error {
				return a.Close(2000, encodeClearing(1, 1))
			},
			expectedError: domain.ErrAuctionNotOpen,
		},
		{
			name:    "close_before_end_time",
			prepare: func(a *domain.Auction) { _ = a.Open(1) },
			op: func(a *domain.Auction) error {
				return a.Close(999, encodeClearing(1, 1))
			},
			expectedError: domain.ErrAuctionNotDue,
		},
		{
			name: "close_twice",
			prepare: func(a *domain.Auction) {
				_ = a.Open(1)
				_ = a.Close(1000, encodeClearing(1, 1))
			},
			op: func(a *domain.Auction) error {
				return a.Close(1001, encodeClearing(1, 1))
			},
			expectedError: domain.ErrAuctionNotOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAuction()
			a.EndTime = 1000
			tt.prepare(a)
			require.EqualError(t, tt.op(a), tt.expectedError.Error())
		})
	}
}

func TestDecodeClearingAmounts(t *testing.T) {
	t.Parallel()

	encoded := encodeClearing(500, 300)
	sold, bought := domain.DecodeClearingAmounts(encoded)
	require.Equal(t, int64(500), sold.Int64())
	require.Equal(t, int64(300), bought.Int64())

	// Garbage above bit 192 is truncated.
	garbage := new(big.Int).Lsh(big.NewInt(0xdead), 192)
	garbage.Or(garbage, encoded)
	sold, bought = domain.DecodeClearingAmounts(garbage)
	require.Equal(t, int64(500), sold.Int64())
	require.Equal(t, int64(300), bought.Int64())

	// 96-bit boundary values survive intact.
	max96 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(1))
	encoded = new(big.Int).Lsh(max96, 96)
	encoded.Or(encoded, max96)
	sold, bought = domain.DecodeClearingAmounts(encoded)
	require.Zero(t, sold.Cmp(max96))
	require.Zero(t, bought.Cmp(max96))
}
