package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dxganta/protocol/internal/infrastructure/registry"
	"github.com/dxganta/protocol/pkg/fixedpoint"
)

func fix(t *testing.T, s string) fixedpoint.Fix {
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	f, err := fixedpoint.FromDecimal(d)
	require.NoError(t, err)
	return f
}

func validOptions(t *testing.T) registry.Options {
	return registry.Options{
		MaxAuctionSize:          fix(t, "0.01"),
		MinRevenueAuctionSize:   fix(t, "0.0001"),
		MaxTradeSlippage:        fix(t, "0.05"),
		DefaultingFiatcoinPrice: fix(t, "0.95"),
		AuctionPeriod:           30 * time.Minute,
		DefaultDelay:            24 * time.Hour,
		ManagerAddress:          "manager",
	}
}

func TestNewService(t *testing.T) {
	t.Parallel()

	svc, err := registry.NewService(validOptions(t))
	require.NoError(t, err)
	require.NotNil(t, svc)
	require.True(t, svc.MaxAuctionSize().Eq(fix(t, "0.01")))
	require.Equal(t, 30*time.Minute, svc.AuctionPeriod())
	require.Equal(t, "manager", svc.ManagerAddress())
}

func TestFailingNewService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(o *registry.Options)
	}{
		{
			name: "zero_max_auction_size",
			mutate: func(o *registry.Options) {
				o.MaxAuctionSize = fixedpoint.Zero()
			},
		},
		{
			name: "max_auction_size_above_one",
			mutate: func(o *registry.Options) {
				o.MaxAuctionSize = fixedpoint.NewFix(2)
			},
		},
		{
			name: "min_revenue_above_max",
			mutate: func(o *registry.Options) {
				o.MinRevenueAuctionSize = fixedpoint.NewFix(1)
			},
		},
		{
			name: "slippage_of_one",
			mutate: func(o *registry.Options) {
				o.MaxTradeSlippage = fixedpoint.One()
			},
		},
		{
			name: "zero_defaulting_price",
			mutate: func(o *registry.Options) {
				o.DefaultingFiatcoinPrice = fixedpoint.Zero()
			},
		},
		{
			name: "zero_auction_period",
			mutate: func(o *registry.Options) {
				o.AuctionPeriod = 0
			},
		},
		{
			name: "zero_default_delay",
			mutate: func(o *registry.Options) {
				o.DefaultDelay = 0
			},
		},
		{
			name: "missing_manager",
			mutate: func(o *registry.Options) {
				o.ManagerAddress = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions(t)
			tt.mutate(&opts)
			svc, err := registry.NewService(opts)
			require.Error(t, err)
			require.Nil(t, svc)
		})
	}
}

func TestTotalAssetValue(t *testing.T) {
	t.Parallel()

	svc, err := registry.NewService(validOptions(t))
	require.NoError(t, err)

	// Without a valuation source the registry refuses to answer.
	_, err = svc.TotalAssetValue(context.Background())
	require.Error(t, err)

	svc.SetValuer(func(_ context.Context) (fixedpoint.Fix, error) {
		return fixedpoint.NewFix(42), nil
	})
	value, err := svc.TotalAssetValue(context.Background())
	require.NoError(t, err)
	require.True(t, value.Eq(fixedpoint.NewFix(42)))
}
