package simulator

import (
	"context"
	"errors"
	"sync"

	"github.com/dxganta/protocol/pkg/fixedpoint"
)

// ErrPriceNotFound is thrown when consulting a feed with no quote set.
var ErrPriceNotFound = errors.New("no price set for asset")

// Oracle is an in-memory price oracle with settable quotes per asset.
type Oracle struct {
	prices map[string]fixedpoint.Fix
	lock   *sync.RWMutex
}

// NewOracle returns an empty oracle.
func NewOracle() *Oracle {
	return &Oracle{
		prices: map[string]fixedpoint.Fix{},
		lock:   &sync.RWMutex{},
	}
}

// SetPrice sets the fiat price of one whole token of the asset.
func (o *Oracle) SetPrice(asset string, price fixedpoint.Fix) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.prices[asset] = price
}

// Consult returns the fiat price of the asset. The source is ignored: the
// simulator serves a single quote per asset.
func (o *Oracle) Consult(
	_ context.Context, _, asset string,
) (fixedpoint.Fix, error) {
	o.lock.RLock()
	defer o.lock.RUnlock()

	price, ok := o.prices[asset]
	if !ok {
		return fixedpoint.Fix{}, ErrPriceNotFound
	}
	return price, nil
}

// RateSource is an in-memory redemption rate source with settable rates.
type RateSource struct {
	rates map[string]fixedpoint.Fix
	lock  *sync.RWMutex
}

// NewRateSource returns a rate source serving 1 for unknown assets.
func NewRateSource() *RateSource {
	return &RateSource{
		rates: map[string]fixedpoint.Fix{},
		lock:  &sync.RWMutex{},
	}
}

// SetRate sets the redemption rate of a derivative asset to its underlying.
func (r *RateSource) SetRate(asset string, rate fixedpoint.Fix) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.rates[asset] = rate
}

// RedemptionRate returns the redemption rate of the asset, defaulting to 1.
func (r *RateSource) RedemptionRate(
	_ context.Context, asset string,
) (fixedpoint.Fix, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if rate, ok := r.rates[asset]; ok {
		return rate, nil
	}
	return fixedpoint.One(), nil
}

// RewardsClaimer is an in-memory rewards program: claims report a fixed set
// of reward assets whose balances the token ledger already tracks.
type RewardsClaimer struct {
	rewardAssets []string
}

// NewRewardsClaimer returns a claimer reporting the given reward assets.
func NewRewardsClaimer(rewardAssets ...string) *RewardsClaimer {
	return &RewardsClaimer{rewardAssets: rewardAssets}
}

// Claim returns the reward asset addresses. Claiming is idempotent here;
// reward accrual is driven by minting on the token ledger.
func (c *RewardsClaimer) Claim(_ context.Context, _ string) ([]string, error) {
	return c.rewardAssets, nil
}
