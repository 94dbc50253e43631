package domain

import "errors"

var (
	// ErrEmptyBasket is thrown when issuing or redeeming against a vault
	// whose basket has no collateral.
	ErrEmptyBasket = errors.New("basket must not be empty")
	// ErrDuplicateBasketAsset is thrown when constructing a basket with the
	// same collateral asset listed twice.
	ErrDuplicateBasketAsset = errors.New("basket must not contain duplicate assets")
	// ErrNegativeQuantity is thrown when a basket quantity is negative.
	ErrNegativeQuantity = errors.New("basket quantity must not be negative")
	// ErrInvalidAmount is thrown when an operation is called with a zero or
	// negative amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInsufficientBalance is thrown when a holder tries to move more
	// basket units than it owns.
	ErrInsufficientBalance = errors.New("insufficient basket unit balance")
	// ErrInsufficientAllowance is thrown when a spender tries to pull more
	// basket units than the owner approved.
	ErrInsufficientAllowance = errors.New("insufficient basket unit allowance")
	// ErrZeroOraclePrice is thrown when the oracle reports a zero price.
	// A zero price would corrupt downstream valuation math, so it is never
	// silently treated as zero value.
	ErrZeroOraclePrice = errors.New("oracle returned a zero price")
	// ErrAuctionNotLaunchable is thrown when launching an auction that has
	// already been opened or closed.
	ErrAuctionNotLaunchable = errors.New("auction must not be open or done to be launched")
	// ErrAuctionNotOpen is thrown when closing an auction that is not open.
	ErrAuctionNotOpen = errors.New("auction must be open to be closed")
	// ErrAuctionNotDue is thrown when closing an auction before its end time.
	ErrAuctionNotDue = errors.New("auction end time has not passed yet")
)
