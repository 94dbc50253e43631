package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/dxganta/protocol/internal/core/domain"
)

// CollateralRepositoryImpl represents an in memory storage for collateral
// default-detection state.
type CollateralRepositoryImpl struct {
	collateral map[string]*domain.Collateral
	lock       *sync.RWMutex
}

// NewCollateralRepositoryImpl returns a new empty CollateralRepositoryImpl.
func NewCollateralRepositoryImpl() *CollateralRepositoryImpl {
	return &CollateralRepositoryImpl{
		collateral: map[string]*domain.Collateral{},
		lock:       &sync.RWMutex{},
	}
}

// AddCollateral adds a new collateral to the repository.
func (r *CollateralRepositoryImpl) AddCollateral(
	_ context.Context, collateral *domain.Collateral,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.collateral[collateral.Asset.Address]; ok {
		return ErrCollateralAlreadyExists
	}
	r.collateral[collateral.Asset.Address] = collateral
	return nil
}

// GetCollateral returns the collateral for the given asset address.
func (r *CollateralRepositoryImpl) GetCollateral(
	_ context.Context, asset string,
) (*domain.Collateral, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.getCollateral(asset)
}

// GetAllCollateral returns all registered collateral sorted by asset address.
func (r *CollateralRepositoryImpl) GetAllCollateral(
	_ context.Context,
) ([]domain.Collateral, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	collateral := make([]domain.Collateral, 0, len(r.collateral))
	for _, c := range r.collateral {
		collateral = append(collateral, *c)
	}
	sort.Slice(collateral, func(i, j int) bool {
		return collateral[i].Asset.Address < collateral[j].Asset.Address
	})
	return collateral, nil
}

// UpdateCollateral updates the state of a collateral through an update
// closure.
func (r *CollateralRepositoryImpl) UpdateCollateral(
	_ context.Context,
	asset string, updateFn func(c *domain.Collateral) (*domain.Collateral, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	currentCollateral, err := r.getCollateral(asset)
	if err != nil {
		return err
	}

	updatedCollateral, err := updateFn(currentCollateral)
	if err != nil {
		return err
	}

	r.collateral[asset] = updatedCollateral
	return nil
}

func (r *CollateralRepositoryImpl) getCollateral(
	asset string,
) (*domain.Collateral, error) {
	collateral, ok := r.collateral[asset]
	if !ok {
		return nil, ErrCollateralNotFound
	}
	return collateral, nil
}
