package application

import (
	"context"
	"fmt"
	"math/big"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/dxganta/protocol/internal/core/domain"
	"github.com/dxganta/protocol/internal/core/ports"
	"github.com/dxganta/protocol/pkg/circuitbreaker"
	"github.com/dxganta/protocol/pkg/fixedpoint"
)

// TraderService converts desired rebalancing trades into concrete, safe
// auction orders and manages their lifecycle against the external market.
// Dust-sized trades are legitimate no-ops signalled through the notDust
// result, never errors.
type TraderService struct {
	registry    ports.Registry
	market      ports.Market
	tokens      ports.TokenService
	repoManager ports.RepoManager
	oracle      domain.PriceOracle
	rates       domain.RateSource
	marketCb    *gobreaker.CircuitBreaker

	// account is the address holding the tokens put up for sale.
	account string

	openAuctions int
}

// NewTraderService returns a trader service operating on behalf of the given
// account.
func NewTraderService(
	registry ports.Registry,
	market ports.Market,
	tokens ports.TokenService,
	repoManager ports.RepoManager,
	oracle domain.PriceOracle,
	rates domain.RateSource,
	account string,
) (*TraderService, error) {
	if registry == nil {
		return nil, fmt.Errorf("missing registry")
	}
	if market == nil {
		return nil, fmt.Errorf("missing market")
	}
	if tokens == nil {
		return nil, fmt.Errorf("missing token service")
	}
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if oracle == nil {
		return nil, fmt.Errorf("missing oracle")
	}
	if rates == nil {
		return nil, fmt.Errorf("missing rate source")
	}

	// The open-auction counter survives restarts through the log.
	auctions, err := repoManager.AuctionRepository().GetAllAuctions(context.Background())
	if err != nil {
		return nil, err
	}
	openAuctions := 0
	for _, a := range auctions {
		if a.Status == domain.AuctionOpen {
			openAuctions++
		}
	}

	return &TraderService{
		registry:     registry,
		market:       market,
		tokens:       tokens,
		repoManager:  repoManager,
		oracle:       newBreakerOracle(oracle),
		rates:        rates,
		marketCb:     circuitbreaker.NewCircuitBreaker("market"),
		account:      account,
		openAuctions: openAuctions,
	}, nil
}

// OpenAuctionCount returns how many launched auctions are not yet settled.
func (s *TraderService) OpenAuctionCount() int {
	return s.openAuctions
}

// PrepareAuctionSell computes a safe auction order selling sellAmount whole
// tokens of sell for buy. It returns notDust=false, with no auction and no
// state change, when the trade is below the dust threshold. The sell amount
// is capped at the max auction size, floored into native units; the minimum
// buy amount applies the max slippage and is ceiled, so rounding always
// biases in the protocol's favor.
func (s *TraderService) PrepareAuctionSell(
	ctx context.Context,
	sell, buy *domain.Collateral,
	sellAmount fixedpoint.Fix,
) (*domain.Auction, bool, error) {
	sellPrice, err := sell.Price(ctx, s.oracle, s.rates)
	if err != nil {
		return nil, false, err
	}
	buyPrice, err := buy.Price(ctx, s.oracle, s.rates)
	if err != nil {
		return nil, false, err
	}
	if sellPrice.IsZero() || buyPrice.IsZero() {
		return nil, false, ErrZeroAuctionPrice
	}

	totalValue, err := s.registry.TotalAssetValue(ctx)
	if err != nil {
		return nil, false, err
	}

	dustThreshold, err := fraction(totalValue, s.registry.MinRevenueAuctionSize(), sellPrice)
	if err != nil {
		return nil, false, err
	}
	if sellAmount.Lt(dustThreshold) {
		return nil, false, nil
	}

	maxSellAmount, err := fraction(totalValue, s.registry.MaxAuctionSize(), sellPrice)
	if err != nil {
		return nil, false, err
	}
	sellAmount = fixedpoint.Min(sellAmount, maxSellAmount)

	exactBuyAmount, err := crossPrice(sellAmount, sellPrice, buyPrice)
	if err != nil {
		return nil, false, err
	}
	keepFraction, err := fixedpoint.One().Sub(s.registry.MaxTradeSlippage())
	if err != nil {
		return nil, false, err
	}
	minBuyAmount, err := exactBuyAmount.Mul(keepFraction)
	if err != nil {
		return nil, false, err
	}

	sellNative, err := sellAmount.MulUint(sell.Asset.UnitScale())
	if err != nil {
		return nil, false, err
	}
	buyNative, err := minBuyAmount.MulUint(buy.Asset.UnitScale())
	if err != nil {
		return nil, false, err
	}

	return &domain.Auction{
		SellAsset:    sell.Asset,
		BuyAsset:     buy.Asset,
		SellAmount:   sellNative.Floor(),
		MinBuyAmount: buyNative.Ceil(),
		Status:       domain.AuctionNotYetOpen,
	}, true, nil
}

// PrepareAuctionToCoverDeficit sizes a sell auction to cover a known
// shortfall of deficitAmount whole buy tokens, assuming proportional
// slippage, clamped to the available sell amount and lifted to a minimum
// dust-sized deficit target. It delegates to PrepareAuctionSell.
func (s *TraderService) PrepareAuctionToCoverDeficit(
	ctx context.Context,
	sell, buy *domain.Collateral,
	maxSellAmount, deficitAmount fixedpoint.Fix,
) (*domain.Auction, bool, error) {
	sellPrice, err := sell.Price(ctx, s.oracle, s.rates)
	if err != nil {
		return nil, false, err
	}
	buyPrice, err := buy.Price(ctx, s.oracle, s.rates)
	if err != nil {
		return nil, false, err
	}
	if sellPrice.IsZero() || buyPrice.IsZero() {
		return nil, false, ErrZeroAuctionPrice
	}

	totalValue, err := s.registry.TotalAssetValue(ctx)
	if err != nil {
		return nil, false, err
	}
	dustDeficit, err := fraction(totalValue, s.registry.MinRevenueAuctionSize(), buyPrice)
	if err != nil {
		return nil, false, err
	}
	deficitAmount = fixedpoint.Max(deficitAmount, dustDeficit)

	keepFraction, err := fixedpoint.One().Sub(s.registry.MaxTradeSlippage())
	if err != nil {
		return nil, false, err
	}
	grossBuyAmount, err := deficitAmount.Div(keepFraction)
	if err != nil {
		return nil, false, err
	}
	sellNeeded, err := crossPrice(grossBuyAmount, buyPrice, sellPrice)
	if err != nil {
		return nil, false, err
	}
	sellAmount := fixedpoint.Min(sellNeeded, maxSellAmount)

	return s.PrepareAuctionSell(ctx, sell, buy, sellAmount)
}

// LaunchAuction grants the external market a spending approval for exactly
// the sell amount, registers the order and appends the auction to the log
// already OPEN, carrying the handle the market assigned. The append only
// happens once the market has accepted the order, so a failed launch leaves
// no entry behind. It returns the auction's stable index in the log.
func (s *TraderService) LaunchAuction(
	ctx context.Context, auction *domain.Auction, now int64,
) (int, error) {
	if auction.Status != domain.AuctionNotYetOpen {
		return -1, domain.ErrAuctionNotLaunchable
	}

	auction.StartTime = now
	auction.EndTime = now + int64(s.registry.AuctionPeriod()/time.Second)

	if err := s.tokens.Approve(
		ctx, auction.SellAsset.Address, s.account, s.market.Address(),
		auction.SellAmount,
	); err != nil {
		return -1, err
	}

	res, err := s.marketCb.Execute(func() (interface{}, error) {
		return s.market.InitiateAuction(
			ctx,
			auction.SellAsset.Address, auction.BuyAsset.Address,
			auction.EndTime, auction.EndTime,
			auction.SellAmount, auction.MinBuyAmount,
		)
	})
	if err != nil {
		return -1, err
	}
	externalId := res.(uint64)

	if err := auction.Open(externalId); err != nil {
		return -1, err
	}
	index, err := s.repoManager.AuctionRepository().AddAuction(ctx, auction)
	if err != nil {
		return -1, err
	}
	s.openAuctions++

	log.Debugf(
		"auction %d launched: sell %s %s for at least %s %s, ends at %d",
		index, auction.SellAmount, auction.SellAsset.Symbol,
		auction.MinBuyAmount, auction.BuyAsset.Symbol, auction.EndTime,
	)
	return index, nil
}

// CloseAuction settles the auction at the given index. It requires the
// auction to be OPEN and past its end time, queries the external market for
// the clearing amounts and marks the auction DONE.
func (s *TraderService) CloseAuction(ctx context.Context, index int, now int64) error {
	auction, err := s.repoManager.AuctionRepository().GetAuction(ctx, index)
	if err != nil {
		return err
	}
	if auction.Status != domain.AuctionOpen {
		return domain.ErrAuctionNotOpen
	}
	if now < auction.EndTime {
		return domain.ErrAuctionNotDue
	}

	res, err := s.marketCb.Execute(func() (interface{}, error) {
		return s.market.SettleAuction(ctx, auction.ExternalId)
	})
	if err != nil {
		return err
	}
	encoded := res.(*big.Int)

	if err := s.repoManager.AuctionRepository().UpdateAuction(
		ctx, index, func(a *domain.Auction) (*domain.Auction, error) {
			if err := a.Close(now, encoded); err != nil {
				return nil, err
			}
			return a, nil
		},
	); err != nil {
		return err
	}
	s.openAuctions--

	log.Debugf("auction %d closed", index)
	return nil
}

// CloseDueAuctions scans the auction log in order and closes every open
// auction whose end time has elapsed. Failures on individual auctions are
// logged and do not stop the scan.
func (s *TraderService) CloseDueAuctions(ctx context.Context, now int64) (int, error) {
	auctions, err := s.repoManager.AuctionRepository().GetAllAuctions(ctx)
	if err != nil {
		return 0, err
	}

	closed := 0
	for i, a := range auctions {
		if a.Status != domain.AuctionOpen || now < a.EndTime {
			continue
		}
		if err := s.CloseAuction(ctx, i, now); err != nil {
			log.WithError(err).Warnf("error while closing auction %d", i)
			continue
		}
		closed++
	}
	return closed, nil
}

// fraction returns total * frac / price: the whole-token amount whose value
// is the given fraction of the total asset value.
func fraction(total, frac, price fixedpoint.Fix) (fixedpoint.Fix, error) {
	v, err := total.Mul(frac)
	if err != nil {
		return fixedpoint.Fix{}, err
	}
	return v.Div(price)
}

// crossPrice converts an amount of one asset into the equivalent amount of
// another through their fiat prices.
func crossPrice(amount, fromPrice, toPrice fixedpoint.Fix) (fixedpoint.Fix, error) {
	v, err := amount.Mul(fromPrice)
	if err != nil {
		return fixedpoint.Fix{}, err
	}
	return v.Div(toPrice)
}
