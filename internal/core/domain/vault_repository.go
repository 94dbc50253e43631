package domain

import "context"

// VaultRepository is the abstraction for any kind of database intended to
// persist vault ledgers.
type VaultRepository interface {
	// AddVault adds a new vault to the repository.
	AddVault(ctx context.Context, vault *Vault) error
	// GetVault returns the vault with the given id.
	GetVault(ctx context.Context, id string) (*Vault, error)
	// GetAllVaults returns all vaults.
	GetAllVaults(ctx context.Context) ([]Vault, error)
	// UpdateVault updates the state of a vault. The closure lets callers
	// commit multiple changes to a vault in a transactional way.
	UpdateVault(
		ctx context.Context,
		id string, updateFn func(v *Vault) (*Vault, error),
	) error
}
