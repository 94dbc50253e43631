package dbbadger

import (
	"context"
	"errors"

	"github.com/timshannon/badgerhold/v4"

	"github.com/dxganta/protocol/internal/core/domain"
)

type vaultRepositoryImpl struct {
	db *DbManager
}

// NewVaultRepositoryImpl returns a badger implementation of the
// VaultRepository interface.
func NewVaultRepositoryImpl(db *DbManager) domain.VaultRepository {
	return vaultRepositoryImpl{db: db}
}

func (r vaultRepositoryImpl) AddVault(
	_ context.Context, vault *domain.Vault,
) error {
	return r.db.VaultStore.Insert(vault.Id, *vault)
}

func (r vaultRepositoryImpl) GetVault(
	_ context.Context, id string,
) (*domain.Vault, error) {
	return r.getVault(id)
}

func (r vaultRepositoryImpl) GetAllVaults(
	_ context.Context,
) ([]domain.Vault, error) {
	var vaults []domain.Vault
	if err := r.db.VaultStore.Find(&vaults, nil); err != nil {
		return nil, err
	}
	return vaults, nil
}

func (r vaultRepositoryImpl) UpdateVault(
	_ context.Context,
	id string, updateFn func(v *domain.Vault) (*domain.Vault, error),
) error {
	currentVault, err := r.getVault(id)
	if err != nil {
		return err
	}

	updatedVault, err := updateFn(currentVault)
	if err != nil {
		return err
	}

	return r.db.VaultStore.Update(id, *updatedVault)
}

func (r vaultRepositoryImpl) getVault(id string) (*domain.Vault, error) {
	var vault domain.Vault
	if err := r.db.VaultStore.Get(id, &vault); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrVaultNotFound
		}
		return nil, err
	}
	return &vault, nil
}
