package inmemory

import "errors"

var (
	// ErrVaultNotFound is thrown when a vault is not found
	ErrVaultNotFound = errors.New("vault does not exist")
	// ErrVaultAlreadyExists is thrown when adding a vault with a taken id
	ErrVaultAlreadyExists = errors.New("vault already exists")
	// ErrAuctionNotFound is thrown when an auction index is out of range
	ErrAuctionNotFound = errors.New("auction does not exist")
	// ErrCollateralNotFound is thrown when a collateral is not found
	ErrCollateralNotFound = errors.New("collateral does not exist")
	// ErrCollateralAlreadyExists is thrown when adding a collateral twice
	ErrCollateralAlreadyExists = errors.New("collateral already exists")
)
