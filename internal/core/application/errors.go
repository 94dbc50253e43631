package application

import "errors"

// ErrZeroAuctionPrice is thrown when either leg of an auction prices at
// zero. This is an unreachable-state check: its violation indicates a
// programming defect upstream, not a recoverable runtime condition.
var ErrZeroAuctionPrice = errors.New("auction legs must have nonzero prices")
