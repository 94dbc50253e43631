package application_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dxganta/protocol/internal/core/application"
	"github.com/dxganta/protocol/internal/core/domain"
	"github.com/dxganta/protocol/internal/infrastructure/registry"
	"github.com/dxganta/protocol/internal/infrastructure/simulator"
	"github.com/dxganta/protocol/internal/infrastructure/storage/db/inmemory"
	"github.com/dxganta/protocol/pkg/fixedpoint"
)

const compAddr = "0xdddddddddddddddddddddddddddddddddddddddd"

type vaultFixture struct {
	svc    *application.VaultService
	tokens *simulator.TokenService
	rates  *simulator.RateSource
	repos  *inmemory.DbManager

	usdc *domain.Collateral
	tusd *domain.Collateral
}

func newVaultFixture(t *testing.T) *vaultFixture {
	registrySvc, err := registry.NewService(registry.Options{
		MaxAuctionSize:          fix(t, "0.01"),
		MinRevenueAuctionSize:   fix(t, "0.0001"),
		MaxTradeSlippage:        fix(t, "0.05"),
		DefaultingFiatcoinPrice: fix(t, "0.95"),
		AuctionPeriod:           30 * time.Minute,
		DefaultDelay:            24 * time.Hour,
		ManagerAddress:          managerAddr,
	})
	require.NoError(t, err)

	tokens := simulator.NewTokenService()
	rates := simulator.NewRateSource()
	repos := inmemory.NewDbManager()
	claimer := simulator.NewRewardsClaimer(compAddr)

	svc, err := application.NewVaultService(
		repos, tokens, rates, claimer, registrySvc,
	)
	require.NoError(t, err)

	return &vaultFixture{
		svc:    svc,
		tokens: tokens,
		rates:  rates,
		repos:  repos,
		usdc: domain.NewCollateral(domain.Asset{
			Address: usdcAddr, Symbol: "USDC", Decimals: 6, PriceSource: "usdc/usd",
		}),
		tusd: domain.NewCollateral(domain.Asset{
			Address: tusdAddr, Symbol: "TUSD", Decimals: 18, PriceSource: "tusd/usd",
		}),
	}
}

// newFixtureVault creates a vault over one whole USDC and two whole TUSD per
// BU, both quantities in native smallest units.
func (f *vaultFixture) newFixtureVault(t *testing.T) *domain.Vault {
	basket, err := domain.NewBasket([]domain.BasketItem{
		{Collateral: f.usdc, Quantity: fixedpoint.NewFix(1_000_000)},
		{Collateral: f.tusd, Quantity: fixedpoint.NewFix(2_000_000_000_000_000_000)},
	})
	require.NoError(t, err)

	vault, err := f.svc.CreateVault(context.Background(), basket)
	require.NoError(t, err)
	return vault
}

func (f *vaultFixture) fundIssuer(t *testing.T, vaultId, issuer string) {
	ctx := context.Background()
	// 100 whole USDC and 200 whole TUSD, approved to the vault.
	f.tokens.Mint(usdcAddr, issuer, big.NewInt(100_000_000))
	tusdAmount, _ := new(big.Int).SetString("200000000000000000000", 10)
	f.tokens.Mint(tusdAddr, issuer, tusdAmount)
	require.NoError(t, f.tokens.Approve(
		ctx, usdcAddr, issuer, vaultId, big.NewInt(100_000_000),
	))
	require.NoError(t, f.tokens.Approve(ctx, tusdAddr, issuer, vaultId, tusdAmount))
}

func bu(whole int64) *big.Int {
	return fixedpoint.NewFix(whole).Raw()
}

func TestVaultIssueAndRedeem(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newVaultFixture(t)
	vault := f.newFixtureVault(t)
	f.fundIssuer(t, vault.Id, "alice")

	require.NoError(t, f.svc.Issue(ctx, vault.Id, "alice", "alice", bu(50)))

	stored, err := f.svc.GetVault(ctx, vault.Id)
	require.NoError(t, err)
	require.Zero(t, stored.BalanceOf("alice").Cmp(bu(50)))
	require.Zero(t, stored.TotalUnits.Cmp(bu(50)))

	// The vault now holds the backing collateral.
	balance, err := f.tokens.BalanceOf(ctx, usdcAddr, vault.Id)
	require.NoError(t, err)
	require.Equal(t, "50000000", balance.String())
	balance, err = f.tokens.BalanceOf(ctx, tusdAddr, vault.Id)
	require.NoError(t, err)
	require.Equal(t, "100000000000000000000", balance.String())

	// Redeeming pays the collateral out to the receiver.
	require.NoError(t, f.svc.Redeem(ctx, vault.Id, "alice", "bob", bu(20)))

	stored, err = f.svc.GetVault(ctx, vault.Id)
	require.NoError(t, err)
	require.Zero(t, stored.BalanceOf("alice").Cmp(bu(30)))
	require.Zero(t, stored.TotalUnits.Cmp(bu(30)))

	balance, err = f.tokens.BalanceOf(ctx, usdcAddr, "bob")
	require.NoError(t, err)
	require.Equal(t, "20000000", balance.String())
	balance, err = f.tokens.BalanceOf(ctx, tusdAddr, "bob")
	require.NoError(t, err)
	require.Equal(t, "40000000000000000000", balance.String())
}

func TestFailingVaultIssue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newVaultFixture(t)
	vault := f.newFixtureVault(t)

	// No funding, no approval: the transfer-in fails and the ledger must be
	// left untouched.
	err := f.svc.Issue(ctx, vault.Id, "alice", "alice", bu(50))
	require.Error(t, err)

	stored, err := f.svc.GetVault(ctx, vault.Id)
	require.NoError(t, err)
	require.Zero(t, stored.TotalUnits.Sign())
	require.Zero(t, stored.BalanceOf("alice").Sign())
}

func TestFailingVaultRedeemBalance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newVaultFixture(t)
	vault := f.newFixtureVault(t)
	f.fundIssuer(t, vault.Id, "alice")
	require.NoError(t, f.svc.Issue(ctx, vault.Id, "alice", "alice", bu(10)))

	err := f.svc.Redeem(ctx, vault.Id, "alice", "alice", bu(11))
	require.EqualError(t, err, domain.ErrInsufficientBalance.Error())

	// The failed debit paid nothing out.
	balance, err := f.tokens.BalanceOf(ctx, usdcAddr, vault.Id)
	require.NoError(t, err)
	require.Equal(t, "10000000", balance.String())
}

func TestVaultAllowancesThroughService(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newVaultFixture(t)
	vault := f.newFixtureVault(t)
	f.fundIssuer(t, vault.Id, "alice")
	require.NoError(t, f.svc.Issue(ctx, vault.Id, "alice", "alice", bu(10)))

	require.NoError(t, f.svc.SetAllowance(ctx, vault.Id, "alice", "bob", bu(4)))
	require.NoError(t, f.svc.PullBUs(ctx, vault.Id, "bob", "alice", bu(3)))

	stored, err := f.svc.GetVault(ctx, vault.Id)
	require.NoError(t, err)
	require.Zero(t, stored.BalanceOf("bob").Cmp(bu(3)))
	require.Zero(t, stored.Allowance("alice", "bob").Cmp(bu(1)))
}

func TestVaultMaxIssuable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newVaultFixture(t)
	vault := f.newFixtureVault(t)
	f.fundIssuer(t, vault.Id, "alice")

	// 100 USDC backs 100 BUs, 200 TUSD backs 100 BUs: exactly 100.
	max, err := f.svc.MaxIssuable(ctx, vault.Id, "alice")
	require.NoError(t, err)
	require.Zero(t, max.Cmp(bu(100)))

	// An unfunded holder can issue nothing.
	max, err = f.svc.MaxIssuable(ctx, vault.Id, "carol")
	require.NoError(t, err)
	require.Zero(t, max.Sign())
}

func TestVaultTotalAssetValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newVaultFixture(t)
	vault := f.newFixtureVault(t)
	f.fundIssuer(t, vault.Id, "alice")
	require.NoError(t, f.svc.Issue(ctx, vault.Id, "alice", "alice", bu(30)))

	// One BU is worth 3 at unit redemption rates.
	rate, err := f.svc.BasketRate(ctx, vault.Id)
	require.NoError(t, err)
	require.True(t, rate.Eq(fixedpoint.NewFix(3)), "got %s", rate)

	value, err := f.svc.TotalAssetValue(ctx)
	require.NoError(t, err)
	require.True(t, value.Eq(fixedpoint.NewFix(90)), "got %s", value)
}

func TestFindBackupVault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newVaultFixture(t)
	vault := f.newFixtureVault(t)

	// A backup over TUSD only, and one over both assets.
	tusdOnly, err := domain.NewBasket([]domain.BasketItem{
		{Collateral: f.tusd, Quantity: fixedpoint.NewFix(3_000_000_000_000_000_000)},
	})
	require.NoError(t, err)
	backup1, err := f.svc.CreateVault(ctx, tusdOnly)
	require.NoError(t, err)

	require.NoError(t, f.repos.VaultRepository().UpdateVault(
		ctx, vault.Id, func(v *domain.Vault) (*domain.Vault, error) {
			v.SetBackupVaults([]string{backup1.Id})
			return v, nil
		},
	))

	// With USDC defaulted only the TUSD-backed vault qualifies.
	found, ok, err := f.svc.FindBackupVault(ctx, vault.Id, []string{tusdAddr})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, backup1.Id, found.Id)

	// No candidate set covers an all-defaulted basket.
	_, ok, err = f.svc.FindBackupVault(ctx, vault.Id, nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSweepRewards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newVaultFixture(t)
	vault := f.newFixtureVault(t)

	// Sweeping with a zero reward balance is a no-op, not an error.
	require.NoError(t, f.svc.SweepRewards(ctx, vault.Id))

	f.tokens.Mint(compAddr, vault.Id, big.NewInt(777))
	require.NoError(t, f.svc.SweepRewards(ctx, vault.Id))

	balance, err := f.tokens.BalanceOf(ctx, compAddr, managerAddr)
	require.NoError(t, err)
	require.Equal(t, int64(777), balance.Int64())
}
