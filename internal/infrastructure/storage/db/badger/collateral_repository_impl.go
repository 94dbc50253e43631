package dbbadger

import (
	"context"
	"errors"
	"sort"

	"github.com/timshannon/badgerhold/v4"

	"github.com/dxganta/protocol/internal/core/domain"
)

type collateralRepositoryImpl struct {
	db *DbManager
}

// NewCollateralRepositoryImpl returns a badger implementation of the
// CollateralRepository interface.
func NewCollateralRepositoryImpl(db *DbManager) domain.CollateralRepository {
	return collateralRepositoryImpl{db: db}
}

func (r collateralRepositoryImpl) AddCollateral(
	_ context.Context, collateral *domain.Collateral,
) error {
	return r.db.CollateralStore.Insert(collateral.Asset.Address, *collateral)
}

func (r collateralRepositoryImpl) GetCollateral(
	_ context.Context, asset string,
) (*domain.Collateral, error) {
	return r.getCollateral(asset)
}

func (r collateralRepositoryImpl) GetAllCollateral(
	_ context.Context,
) ([]domain.Collateral, error) {
	var collateral []domain.Collateral
	if err := r.db.CollateralStore.Find(&collateral, nil); err != nil {
		return nil, err
	}
	sort.Slice(collateral, func(i, j int) bool {
		return collateral[i].Asset.Address < collateral[j].Asset.Address
	})
	return collateral, nil
}

func (r collateralRepositoryImpl) UpdateCollateral(
	_ context.Context,
	asset string, updateFn func(c *domain.Collateral) (*domain.Collateral, error),
) error {
	currentCollateral, err := r.getCollateral(asset)
	if err != nil {
		return err
	}

	updatedCollateral, err := updateFn(currentCollateral)
	if err != nil {
		return err
	}

	return r.db.CollateralStore.Update(asset, *updatedCollateral)
}

func (r collateralRepositoryImpl) getCollateral(
	asset string,
) (*domain.Collateral, error) {
	var collateral domain.Collateral
	if err := r.db.CollateralStore.Get(asset, &collateral); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrCollateralNotFound
		}
		return nil, err
	}
	return &collateral, nil
}
