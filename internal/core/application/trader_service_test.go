package application_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dxganta/protocol/internal/core/application"
	"github.com/dxganta/protocol/internal/core/domain"
	"github.com/dxganta/protocol/internal/infrastructure/registry"
	"github.com/dxganta/protocol/internal/infrastructure/simulator"
	"github.com/dxganta/protocol/internal/infrastructure/storage/db/inmemory"
	"github.com/dxganta/protocol/pkg/fixedpoint"
)

const (
	usdcAddr = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	tusdAddr = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	cusdAddr = "0xcccccccccccccccccccccccccccccccccccccccc"

	traderAccount = "trader"
	managerAddr   = "manager"
)

func fix(t *testing.T, s string) fixedpoint.Fix {
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	f, err := fixedpoint.FromDecimal(d)
	require.NoError(t, err)
	return f
}

type traderFixture struct {
	svc      *application.TraderService
	registry *registry.Service
	market   *simulator.Market
	tokens   *simulator.TokenService
	oracle   *simulator.Oracle
	rates    *simulator.RateSource
	repos    *inmemory.DbManager
	blocks   *simulator.BlockSource

	usdc *domain.Collateral
	tusd *domain.Collateral
}

func newTraderFixture(t *testing.T) *traderFixture {
	registrySvc, err := registry.NewService(registry.Options{
		MaxAuctionSize:          fix(t, "0.01"),
		MinRevenueAuctionSize:   fix(t, "0.0001"),
		MaxTradeSlippage:        fix(t, "0.05"),
		DefaultingFiatcoinPrice: fix(t, "0.95"),
		AuctionPeriod:           30 * time.Minute,
		DefaultDelay:            24 * time.Hour,
		ManagerAddress:          managerAddr,
	})
	require.NoError(t, err)
	registrySvc.SetValuer(
		func(_ context.Context) (fixedpoint.Fix, error) {
			return fixedpoint.NewFix(1_000_000), nil
		},
	)

	blocks := simulator.NewBlockSource(1, 1_000_000, 1800)
	tokens := simulator.NewTokenService()
	oracle := simulator.NewOracle()
	rates := simulator.NewRateSource()
	market := simulator.NewMarket("market", blocks.Now)
	repos := inmemory.NewDbManager()

	oracle.SetPrice(usdcAddr, fixedpoint.One())
	oracle.SetPrice(tusdAddr, fixedpoint.One())

	svc, err := application.NewTraderService(
		registrySvc, market, tokens, repos, oracle, rates, traderAccount,
	)
	require.NoError(t, err)

	return &traderFixture{
		svc:      svc,
		registry: registrySvc,
		market:   market,
		tokens:   tokens,
		oracle:   oracle,
		rates:    rates,
		repos:    repos,
		blocks:   blocks,
		usdc: domain.NewCollateral(domain.Asset{
			Address: usdcAddr, Symbol: "USDC", Decimals: 6, PriceSource: "usdc/usd",
		}),
		tusd: domain.NewCollateral(domain.Asset{
			Address: tusdAddr, Symbol: "TUSD", Decimals: 18, PriceSource: "tusd/usd",
		}),
	}
}

func TestPrepareAuctionSellDustIsNoOp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newTraderFixture(t)

	// Dust threshold is 1_000_000 * 0.0001 / 1 = 100 whole tokens.
	auction, notDust, err := f.svc.PrepareAuctionSell(
		ctx, f.usdc, f.tusd, fixedpoint.NewFix(50),
	)
	require.NoError(t, err)
	require.False(t, notDust)
	require.Nil(t, auction)

	// Nothing was appended to the auction log.
	auctions, err := f.repos.AuctionRepository().GetAllAuctions(ctx)
	require.NoError(t, err)
	require.Empty(t, auctions)
	require.Zero(t, f.svc.OpenAuctionCount())
}

func TestPrepareAuctionSellCapsAndRounds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newTraderFixture(t)

	// The cap is 1_000_000 * 0.01 / 1 = 10_000 whole tokens.
	auction, notDust, err := f.svc.PrepareAuctionSell(
		ctx, f.usdc, f.tusd, fixedpoint.NewFix(20_000),
	)
	require.NoError(t, err)
	require.True(t, notDust)
	require.NotNil(t, auction)
	require.Equal(t, domain.AuctionNotYetOpen, auction.Status)

	// 10_000 USDC floored into 6-decimal units.
	require.Equal(t, "10000000000", auction.SellAmount.String())
	// 9_500 TUSD (5% slippage) ceiled into 18-decimal units.
	require.Equal(t, "9500000000000000000000", auction.MinBuyAmount.String())
}

func TestPrepareAuctionSellCrossPrice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newTraderFixture(t)
	f.oracle.SetPrice(usdcAddr, fixedpoint.NewFix(2))
	f.oracle.SetPrice(tusdAddr, fix(t, "0.5"))

	auction, notDust, err := f.svc.PrepareAuctionSell(
		ctx, f.usdc, f.tusd, fixedpoint.NewFix(1000),
	)
	require.NoError(t, err)
	require.True(t, notDust)

	// 1000 USDC at 2 buys 4000 TUSD at 0.5; minus 5% slippage.
	require.Equal(t, "1000000000", auction.SellAmount.String())
	require.Equal(t, "3800000000000000000000", auction.MinBuyAmount.String())
}

func TestFailingPrepareAuctionSellZeroPrice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newTraderFixture(t)

	// A derivative whose redemption rate is zero prices at zero without the
	// oracle itself failing.
	cusd := domain.NewDerivativeCollateral(domain.Asset{
		Address: cusdAddr, Symbol: "cUSDC", Decimals: 8,
	}, f.usdc)
	f.rates.SetRate(cusdAddr, fixedpoint.Zero())

	_, _, err := f.svc.PrepareAuctionSell(
		ctx, cusd, f.tusd, fixedpoint.NewFix(1000),
	)
	require.EqualError(t, err, application.ErrZeroAuctionPrice.Error())
}

func TestPrepareAuctionToCoverDeficit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newTraderFixture(t)

	auction, notDust, err := f.svc.PrepareAuctionToCoverDeficit(
		ctx, f.usdc, f.tusd,
		fixedpoint.NewFix(2000), fixedpoint.NewFix(1000),
	)
	require.NoError(t, err)
	require.True(t, notDust)

	// Selling 1000 / (1 - 0.05) covers the deficit after worst-case slippage;
	// the minimum buy lands back exactly on the deficit.
	require.Equal(t, "1052631578", auction.SellAmount.String())
	require.Equal(t, "1000000000000000000000", auction.MinBuyAmount.String())
}

func TestAuctionLaunchAndClose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newTraderFixture(t)
	f.tokens.Mint(usdcAddr, traderAccount, big.NewInt(20_000_000_000))

	auction, notDust, err := f.svc.PrepareAuctionSell(
		ctx, f.usdc, f.tusd, fixedpoint.NewFix(10_000),
	)
	require.NoError(t, err)
	require.True(t, notDust)

	now := f.blocks.Now()
	index, err := f.svc.LaunchAuction(ctx, auction, now)
	require.NoError(t, err)
	require.Zero(t, index)
	require.Equal(t, 1, f.svc.OpenAuctionCount())

	stored, err := f.repos.AuctionRepository().GetAuction(ctx, index)
	require.NoError(t, err)
	require.Equal(t, domain.AuctionOpen, stored.Status)
	require.Equal(t, now+1800, stored.EndTime)

	// Launching only grants an approval; no tokens moved yet.
	balance, err := f.tokens.BalanceOf(ctx, usdcAddr, traderAccount)
	require.NoError(t, err)
	require.Equal(t, "20000000000", balance.String())

	// Too early to settle.
	err = f.svc.CloseAuction(ctx, index, now)
	require.EqualError(t, err, domain.ErrAuctionNotDue.Error())

	// One block later the period has elapsed.
	f.blocks.AdvanceBlock()
	require.NoError(t, f.svc.CloseAuction(ctx, index, f.blocks.Now()))
	require.Zero(t, f.svc.OpenAuctionCount())

	stored, err = f.repos.AuctionRepository().GetAuction(ctx, index)
	require.NoError(t, err)
	require.Equal(t, domain.AuctionDone, stored.Status)
	require.Zero(t, stored.ClearingSellAmount.Cmp(stored.SellAmount))
	require.Zero(t, stored.ClearingBuyAmount.Cmp(stored.MinBuyAmount))

	// Settling twice is rejected.
	err = f.svc.CloseAuction(ctx, index, f.blocks.Now())
	require.EqualError(t, err, domain.ErrAuctionNotOpen.Error())
}

func TestFailingAuctionLaunchLeavesNoTrace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newTraderFixture(t)
	f.tokens.Mint(usdcAddr, traderAccount, big.NewInt(20_000_000_000))

	market := &flakyMarket{
		Market:      f.market,
		initiateErr: errors.New("order rejected"),
	}
	svc, err := application.NewTraderService(
		f.registry, market, f.tokens, f.repos, f.oracle, f.rates, traderAccount,
	)
	require.NoError(t, err)

	auction, notDust, err := svc.PrepareAuctionSell(
		ctx, f.usdc, f.tusd, fixedpoint.NewFix(10_000),
	)
	require.NoError(t, err)
	require.True(t, notDust)

	_, err = svc.LaunchAuction(ctx, auction, f.blocks.Now())
	require.EqualError(t, err, "order rejected")

	// A rejected order leaves nothing behind in the append-only log.
	auctions, err := f.repos.AuctionRepository().GetAllAuctions(ctx)
	require.NoError(t, err)
	require.Empty(t, auctions)
	require.Zero(t, svc.OpenAuctionCount())

	// Once the market recovers the same prepared auction launches without
	// a duplicate entry.
	market.initiateErr = nil
	index, err := svc.LaunchAuction(ctx, auction, f.blocks.Now())
	require.NoError(t, err)
	require.Zero(t, index)

	auctions, err = f.repos.AuctionRepository().GetAllAuctions(ctx)
	require.NoError(t, err)
	require.Len(t, auctions, 1)
	require.Equal(t, domain.AuctionOpen, auctions[0].Status)
}

func TestOpenAuctionCountSurvivesRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newTraderFixture(t)
	f.tokens.Mint(usdcAddr, traderAccount, big.NewInt(20_000_000_000))

	auction, notDust, err := f.svc.PrepareAuctionSell(
		ctx, f.usdc, f.tusd, fixedpoint.NewFix(10_000),
	)
	require.NoError(t, err)
	require.True(t, notDust)
	index, err := f.svc.LaunchAuction(ctx, auction, f.blocks.Now())
	require.NoError(t, err)

	// A service rebuilt over the same store picks the open auction up.
	restarted, err := application.NewTraderService(
		f.registry, f.market, f.tokens, f.repos, f.oracle, f.rates, traderAccount,
	)
	require.NoError(t, err)
	require.Equal(t, 1, restarted.OpenAuctionCount())

	f.blocks.AdvanceBlock()
	require.NoError(t, restarted.CloseAuction(ctx, index, f.blocks.Now()))
	require.Zero(t, restarted.OpenAuctionCount())
}

func TestCloseDueAuctions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newTraderFixture(t)
	f.tokens.Mint(usdcAddr, traderAccount, big.NewInt(100_000_000_000))

	now := f.blocks.Now()
	for i := 0; i < 3; i++ {
		auction, notDust, err := f.svc.PrepareAuctionSell(
			ctx, f.usdc, f.tusd, fixedpoint.NewFix(10_000),
		)
		require.NoError(t, err)
		require.True(t, notDust)
		_, err = f.svc.LaunchAuction(ctx, auction, now)
		require.NoError(t, err)
	}
	require.Equal(t, 3, f.svc.OpenAuctionCount())

	// Nothing due yet.
	closed, err := f.svc.CloseDueAuctions(ctx, now)
	require.NoError(t, err)
	require.Zero(t, closed)

	f.blocks.AdvanceBlock()
	closed, err = f.svc.CloseDueAuctions(ctx, f.blocks.Now())
	require.NoError(t, err)
	require.Equal(t, 3, closed)
	require.Zero(t, f.svc.OpenAuctionCount())
}

// flakyMarket wraps the simulator market with an injectable order
// registration failure.
type flakyMarket struct {
	*simulator.Market
	initiateErr error
}

func (m *flakyMarket) InitiateAuction(
	ctx context.Context,
	sellAsset, buyAsset string,
	cancelDeadline, endTime int64,
	sellAmount, minBuyAmount *big.Int,
) (uint64, error) {
	if m.initiateErr != nil {
		return 0, m.initiateErr
	}
	return m.Market.InitiateAuction(
		ctx, sellAsset, buyAsset, cancelDeadline, endTime, sellAmount, minBuyAmount,
	)
}
