package inmemory

import (
	"context"
	"sync"

	"github.com/dxganta/protocol/internal/core/domain"
)

// VaultRepositoryImpl represents an in memory storage for vault ledgers.
type VaultRepositoryImpl struct {
	vaults map[string]*domain.Vault
	lock   *sync.RWMutex
}

// NewVaultRepositoryImpl returns a new empty VaultRepositoryImpl.
func NewVaultRepositoryImpl() *VaultRepositoryImpl {
	return &VaultRepositoryImpl{
		vaults: map[string]*domain.Vault{},
		lock:   &sync.RWMutex{},
	}
}

// AddVault adds a new vault to the repository.
func (r *VaultRepositoryImpl) AddVault(
	_ context.Context, vault *domain.Vault,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.vaults[vault.Id]; ok {
		return ErrVaultAlreadyExists
	}
	r.vaults[vault.Id] = vault
	return nil
}

// GetVault returns the vault with the given id.
func (r *VaultRepositoryImpl) GetVault(
	_ context.Context, id string,
) (*domain.Vault, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.getVault(id)
}

// GetAllVaults returns all stored vaults.
func (r *VaultRepositoryImpl) GetAllVaults(
	_ context.Context,
) ([]domain.Vault, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	vaults := make([]domain.Vault, 0, len(r.vaults))
	for _, v := range r.vaults {
		vaults = append(vaults, *v)
	}
	return vaults, nil
}

// UpdateVault updates the state of a vault through an update closure.
func (r *VaultRepositoryImpl) UpdateVault(
	_ context.Context,
	id string, updateFn func(v *domain.Vault) (*domain.Vault, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	currentVault, err := r.getVault(id)
	if err != nil {
		return err
	}

	updatedVault, err := updateFn(currentVault)
	if err != nil {
		return err
	}

	r.vaults[id] = updatedVault
	return nil
}

func (r *VaultRepositoryImpl) getVault(id string) (*domain.Vault, error) {
	vault, ok := r.vaults[id]
	if !ok {
		return nil, ErrVaultNotFound
	}
	return vault, nil
}
