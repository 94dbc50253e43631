package inmemory

import (
	"github.com/dxganta/protocol/internal/core/domain"
)

// DbManager is an in-memory implementation of the RepoManager interface,
// used by unit tests and local runs.
type DbManager struct {
	vaultRepository      *VaultRepositoryImpl
	auctionRepository    *AuctionRepositoryImpl
	collateralRepository *CollateralRepositoryImpl
}

// NewDbManager returns a repo manager with empty in-memory stores.
func NewDbManager() *DbManager {
	return &DbManager{
		vaultRepository:      NewVaultRepositoryImpl(),
		auctionRepository:    NewAuctionRepositoryImpl(),
		collateralRepository: NewCollateralRepositoryImpl(),
	}
}

// VaultRepository returns the in-memory vault repository.
func (d *DbManager) VaultRepository() domain.VaultRepository {
	return d.vaultRepository
}

// AuctionRepository returns the in-memory auction repository.
func (d *DbManager) AuctionRepository() domain.AuctionRepository {
	return d.auctionRepository
}

// CollateralRepository returns the in-memory collateral repository.
func (d *DbManager) CollateralRepository() domain.CollateralRepository {
	return d.collateralRepository
}

// Close is a no-op for the in-memory stores.
func (d *DbManager) Close() {}
