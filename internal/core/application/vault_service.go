package application

import (
	"context"
	"fmt"
	"math/big"

	log "github.com/sirupsen/logrus"

	"github.com/dxganta/protocol/internal/core/domain"
	"github.com/dxganta/protocol/internal/core/ports"
	"github.com/dxganta/protocol/pkg/fixedpoint"
)

// VaultService executes the basket-unit accounting operations atomically:
// issuing pulls all collateral before crediting any balance, redeeming debits
// the ledger before paying anything out, so a re-entrant call during a value
// transfer can never observe an exploitable intermediate state.
type VaultService struct {
	repoManager ports.RepoManager
	tokens      ports.TokenService
	rates       domain.RateSource
	claimer     ports.RewardsClaimer
	registry    ports.Registry
}

// NewVaultService returns a vault service backed by the given collaborators.
// Valuation only goes through redemption rates: pricing collateral against
// the oracle is the trader's and monitor's business.
func NewVaultService(
	repoManager ports.RepoManager,
	tokens ports.TokenService,
	rates domain.RateSource,
	claimer ports.RewardsClaimer,
	registry ports.Registry,
) (*VaultService, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if tokens == nil {
		return nil, fmt.Errorf("missing token service")
	}
	if rates == nil {
		return nil, fmt.Errorf("missing rate source")
	}
	if claimer == nil {
		return nil, fmt.Errorf("missing rewards claimer")
	}
	if registry == nil {
		return nil, fmt.Errorf("missing registry")
	}

	return &VaultService{
		repoManager: repoManager,
		tokens:      tokens,
		rates:       rates,
		claimer:     claimer,
		registry:    registry,
	}, nil
}

// CreateVault constructs a new empty vault over the given basket and
// persists it. Replacing a basket composition always goes through here: the
// composition of an existing vault is immutable.
func (s *VaultService) CreateVault(
	ctx context.Context, basket domain.Basket,
) (*domain.Vault, error) {
	vault := domain.NewVault(basket)
	if err := s.repoManager.VaultRepository().AddVault(ctx, vault); err != nil {
		return nil, err
	}

	log.Debugf("vault %s created with %d basket assets", vault.Id, basket.Size())
	return vault, nil
}

// GetVault returns the vault with the given id.
func (s *VaultService) GetVault(
	ctx context.Context, vaultId string,
) (*domain.Vault, error) {
	return s.repoManager.VaultRepository().GetVault(ctx, vaultId)
}

// TokenAmounts returns the per-asset whole-token quantities backing the
// given BU amount.
func (s *VaultService) TokenAmounts(
	ctx context.Context, vaultId string, buAmount *big.Int,
) ([]*big.Int, error) {
	vault, err := s.repoManager.VaultRepository().GetVault(ctx, vaultId)
	if err != nil {
		return nil, err
	}
	return vault.TokenAmounts(buAmount)
}

// Issue mints amount BUs to the receiver, pulling the backing collateral
// from the issuer. All token amounts are computed and all transfers executed
// before any balance is credited.
func (s *VaultService) Issue(
	ctx context.Context, vaultId, from, to string, amount *big.Int,
) error {
	vault, err := s.repoManager.VaultRepository().GetVault(ctx, vaultId)
	if err != nil {
		return err
	}

	amounts, err := vault.TokenAmounts(amount)
	if err != nil {
		return err
	}

	for i, item := range vault.Basket.Items {
		if err := s.tokens.TransferFrom(
			ctx, item.Collateral.Asset.Address, vault.Id, from, vault.Id, amounts[i],
		); err != nil {
			return err
		}
	}

	if err := s.repoManager.VaultRepository().UpdateVault(
		ctx, vaultId, func(v *domain.Vault) (*domain.Vault, error) {
			if err := v.IssueBUs(to, amount); err != nil {
				return nil, err
			}
			return v, nil
		},
	); err != nil {
		return err
	}

	log.Debugf("vault %s: issued %s BUs to %s", vaultId, amount, to)
	return nil
}

// Redeem burns amount BUs from the redeemer and pays out the backing
// collateral to the receiver. The ledger is debited before anything is paid
// out so a re-entrant payout cannot inflate the redemption.
func (s *VaultService) Redeem(
	ctx context.Context, vaultId, from, to string, amount *big.Int,
) error {
	vault, err := s.repoManager.VaultRepository().GetVault(ctx, vaultId)
	if err != nil {
		return err
	}

	amounts, err := vault.TokenAmounts(amount)
	if err != nil {
		return err
	}

	if err := s.repoManager.VaultRepository().UpdateVault(
		ctx, vaultId, func(v *domain.Vault) (*domain.Vault, error) {
			if err := v.RedeemBUs(from, amount); err != nil {
				return nil, err
			}
			return v, nil
		},
	); err != nil {
		return err
	}

	for i, item := range vault.Basket.Items {
		if err := s.tokens.Transfer(
			ctx, item.Collateral.Asset.Address, vault.Id, to, amounts[i],
		); err != nil {
			return err
		}
	}

	log.Debugf("vault %s: redeemed %s BUs from %s", vaultId, amount, from)
	return nil
}

// SetAllowance approves a spender to pull up to amount BUs from an owner.
func (s *VaultService) SetAllowance(
	ctx context.Context, vaultId, owner, spender string, amount *big.Int,
) error {
	return s.repoManager.VaultRepository().UpdateVault(
		ctx, vaultId, func(v *domain.Vault) (*domain.Vault, error) {
			if err := v.SetAllowance(owner, spender, amount); err != nil {
				return nil, err
			}
			return v, nil
		},
	)
}

// PullBUs moves amount BUs from an owner to an approved spender.
func (s *VaultService) PullBUs(
	ctx context.Context, vaultId, spender, from string, amount *big.Int,
) error {
	return s.repoManager.VaultRepository().UpdateVault(
		ctx, vaultId, func(v *domain.Vault) (*domain.Vault, error) {
			if err := v.PullBUs(spender, from, amount); err != nil {
				return nil, err
			}
			return v, nil
		},
	)
}

// BasketRate returns the fiat value of one BU of the given vault.
func (s *VaultService) BasketRate(
	ctx context.Context, vaultId string,
) (fixedpoint.Fix, error) {
	vault, err := s.repoManager.VaultRepository().GetVault(ctx, vaultId)
	if err != nil {
		return fixedpoint.Fix{}, err
	}
	return vault.BasketRate(ctx, s.rates)
}

// MaxIssuable returns the highest BU amount the holder's token balances can
// back: the binding constraint over all basket assets.
func (s *VaultService) MaxIssuable(
	ctx context.Context, vaultId, holder string,
) (*big.Int, error) {
	vault, err := s.repoManager.VaultRepository().GetVault(ctx, vaultId)
	if err != nil {
		return nil, err
	}

	balances := make(map[string]*big.Int, vault.Basket.Size())
	for _, item := range vault.Basket.Items {
		balance, err := s.tokens.BalanceOf(ctx, item.Collateral.Asset.Address, holder)
		if err != nil {
			return nil, err
		}
		balances[item.Collateral.Asset.Address] = balance
	}
	return vault.MaxIssuable(balances)
}

// TotalAssetValue returns the fiat value of all BUs across all vaults. It is
// the valuation the registry serves to the trader.
func (s *VaultService) TotalAssetValue(ctx context.Context) (fixedpoint.Fix, error) {
	vaults, err := s.repoManager.VaultRepository().GetAllVaults(ctx)
	if err != nil {
		return fixedpoint.Fix{}, err
	}

	total := fixedpoint.Zero()
	for i := range vaults {
		vault := vaults[i]
		rate, err := vault.BasketRate(ctx, s.rates)
		if err != nil {
			return fixedpoint.Fix{}, err
		}
		units, err := fixedpoint.NewFixFromRaw(vault.TotalUnits)
		if err != nil {
			return fixedpoint.Fix{}, err
		}
		value, err := rate.Mul(units)
		if err != nil {
			return fixedpoint.Fix{}, err
		}
		total, err = total.Add(value)
		if err != nil {
			return fixedpoint.Fix{}, err
		}
	}
	return total, nil
}

// FindBackupVault returns the first backup vault whose basket is backed
// exclusively by the given candidate assets, or found=false when none
// qualifies. No match is a legitimate outcome, not an error.
func (s *VaultService) FindBackupVault(
	ctx context.Context, vaultId string, candidates []string,
) (*domain.Vault, bool, error) {
	vault, err := s.repoManager.VaultRepository().GetVault(ctx, vaultId)
	if err != nil {
		return nil, false, err
	}

	for _, backupId := range vault.BackupVaults {
		backup, err := s.repoManager.VaultRepository().GetVault(ctx, backupId)
		if err != nil {
			return nil, false, err
		}
		if backup.Basket.ContainsOnly(candidates) {
			return backup, true, nil
		}
	}
	return nil, false, nil
}

// SweepRewards claims external protocol rewards accrued by the vault and
// forwards the full balances to the manager address. Zero balances are
// skipped, not treated as errors.
func (s *VaultService) SweepRewards(ctx context.Context, vaultId string) error {
	vault, err := s.repoManager.VaultRepository().GetVault(ctx, vaultId)
	if err != nil {
		return err
	}

	rewardAssets, err := s.claimer.Claim(ctx, vault.Id)
	if err != nil {
		return err
	}

	manager := s.registry.ManagerAddress()
	for _, asset := range rewardAssets {
		balance, err := s.tokens.BalanceOf(ctx, asset, vault.Id)
		if err != nil {
			return err
		}
		if balance.Sign() == 0 {
			continue
		}
		if err := s.tokens.Transfer(ctx, asset, vault.Id, manager, balance); err != nil {
			return err
		}
		log.Debugf("vault %s: swept %s of %s to manager", vaultId, balance, asset)
	}
	return nil
}
