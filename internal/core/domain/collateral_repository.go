package domain

import "context"

// CollateralRepository is the abstraction for any kind of database intended
// to persist collateral default-detection state.
type CollateralRepository interface {
	// AddCollateral adds a new collateral to the repository.
	AddCollateral(ctx context.Context, collateral *Collateral) error
	// GetCollateral returns the collateral for the given asset address.
	GetCollateral(ctx context.Context, asset string) (*Collateral, error)
	// GetAllCollateral returns all registered collateral.
	GetAllCollateral(ctx context.Context) ([]Collateral, error)
	// UpdateCollateral updates the state of a collateral through a
	// transactional closure.
	UpdateCollateral(
		ctx context.Context,
		asset string, updateFn func(c *Collateral) (*Collateral, error),
	) error
}
