package domain

import (
	"math/big"
)

// AuctionStatus represents the different statuses that an auction can assume.
type AuctionStatus int

const (
	// AuctionNotYetOpen is the status of a prepared auction not yet
	// registered with the external market.
	AuctionNotYetOpen AuctionStatus = iota
	// AuctionOpen is the status of an auction running on the external market.
	AuctionOpen
	// AuctionDone is the status of a settled auction. It is terminal.
	AuctionDone
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionNotYetOpen:
		return "NOT_YET_OPEN"
	case AuctionOpen:
		return "OPEN"
	case AuctionDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

var clearingMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(1))

// Auction is the data structure representing a rebalancing auction entity.
// Sell and buy amounts are expressed in the tokens' native smallest units.
// Once appended to the auction log an auction is never removed.
type Auction struct {
	SellAsset    Asset
	BuyAsset     Asset
	SellAmount   *big.Int
	MinBuyAmount *big.Int
	// Clearing amounts are filled in after settlement.
	ClearingSellAmount *big.Int
	ClearingBuyAmount  *big.Int
	// ExternalId is the opaque handle into the external market.
	ExternalId uint64
	StartTime  int64
	EndTime    int64
	Status     AuctionStatus
}

// Open transitions a prepared auction to OPEN, recording the handle the
// external market assigned to it.
func (a *Auction) Open(externalId uint64) error {
	if a.Status != AuctionNotYetOpen {
		return ErrAuctionNotLaunchable
	}
	a.ExternalId = externalId
	a.Status = AuctionOpen
	return nil
}

// Close transitions an open, due auction to DONE, recording the clearing
// amounts decoded from the external market's settlement value.
func (a *Auction) Close(now int64, encodedClearing *big.Int) error {
	if a.Status != AuctionOpen {
		return ErrAuctionNotOpen
	}
	if now < a.EndTime {
		return ErrAuctionNotDue
	}

	sold, bought := DecodeClearingAmounts(encodedClearing)
	a.ClearingSellAmount = sold
	a.ClearingBuyAmount = bought
	a.Status = AuctionDone
	return nil
}

// DecodeClearingAmounts unpacks the external market's settlement encoding:
// the low 96 bits are the amount sold, the next 96 bits the amount bought.
// Any higher bits are truncated.
func DecodeClearingAmounts(encoded *big.Int) (sold, bought *big.Int) {
	sold = new(big.Int).And(encoded, clearingMask)
	bought = new(big.Int).Rsh(encoded, 96)
	bought.And(bought, clearingMask)
	return sold, bought
}
