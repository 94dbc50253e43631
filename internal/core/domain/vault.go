package domain

import (
	"context"
	"math/big"

	"github.com/google/uuid"

	"github.com/dxganta/protocol/pkg/fixedpoint"
)

var buScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(fixedpoint.Decimals), nil)

// BasketItem pairs a collateral asset with the quantity of tokens backing
// one basket unit, expressed in the token's native smallest units as an
// 18-decimal fixed-point so that fractional unit quantities stay exact.
type BasketItem struct {
	Collateral *Collateral
	Quantity   fixedpoint.Fix
}

// Basket is the ordered, fixed-size list of collateral quantities defining
// one basket unit. Its composition is set once at construction; replacing it
// requires constructing a new Vault.
type Basket struct {
	Items []BasketItem
}

// NewBasket validates and returns a basket. It rejects duplicate assets and
// negative quantities.
func NewBasket(items []BasketItem) (Basket, error) {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.Collateral.Asset.Address]; ok {
			return Basket{}, ErrDuplicateBasketAsset
		}
		seen[item.Collateral.Asset.Address] = struct{}{}

		if item.Quantity.Sign() < 0 {
			return Basket{}, ErrNegativeQuantity
		}
	}
	return Basket{Items: items}, nil
}

// Size returns the number of collateral assets in the basket.
func (b Basket) Size() int { return len(b.Items) }

// IsEmpty reports whether the basket has no collateral.
func (b Basket) IsEmpty() bool { return len(b.Items) == 0 }

// Assets returns the basket's asset addresses in basket order.
func (b Basket) Assets() []string {
	assets := make([]string, 0, len(b.Items))
	for _, item := range b.Items {
		assets = append(assets, item.Collateral.Asset.Address)
	}
	return assets
}

// ContainsOnly reports whether every basket asset appears in the candidate
// set. It is used to select a backup vault among those backed exclusively by
// still-sound collateral.
func (b Basket) ContainsOnly(candidates []string) bool {
	set := make(map[string]struct{}, len(candidates))
	for _, a := range candidates {
		set[a] = struct{}{}
	}
	for _, item := range b.Items {
		if _, ok := set[item.Collateral.Asset.Address]; !ok {
			return false
		}
	}
	return true
}

// Vault is the accounting ledger for basket units: who owns how many BUs
// against the fixed basket composition. The sum of all balances equals
// TotalUnits after every operation.
type Vault struct {
	Id     string
	Basket Basket
	// Balances maps holder address to BU balance, 18-decimal scaled.
	Balances   map[string]*big.Int
	TotalUnits *big.Int
	// Allowances maps owner to spender to approved BU amount.
	Allowances map[string]map[string]*big.Int
	// BackupVaults and RegistryAddr are the only owner-mutable fields.
	BackupVaults []string
	RegistryAddr string
}

// NewVault returns an empty vault ledger over the given basket.
func NewVault(basket Basket) *Vault {
	return &Vault{
		Id:         uuid.New().String(),
		Basket:     basket,
		Balances:   map[string]*big.Int{},
		TotalUnits: big.NewInt(0),
		Allowances: map[string]map[string]*big.Int{},
	}
}

// BalanceOf returns the BU balance of a holder.
func (v *Vault) BalanceOf(holder string) *big.Int {
	if bal, ok := v.Balances[holder]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// Allowance returns how many BUs a spender may still pull from an owner.
func (v *Vault) Allowance(owner, spender string) *big.Int {
	if spenders, ok := v.Allowances[owner]; ok {
		if amount, ok := spenders[spender]; ok {
			return new(big.Int).Set(amount)
		}
	}
	return big.NewInt(0)
}

// TokenAmounts returns, per basket asset, the token quantity backing the
// given BU amount, floor-rounded into the asset's native smallest units.
// It must be computed before any transfer so that failures surface before
// state mutation.
func (v *Vault) TokenAmounts(buAmount *big.Int) ([]*big.Int, error) {
	if buAmount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if v.Basket.IsEmpty() {
		return nil, ErrEmptyBasket
	}

	amounts := make([]*big.Int, 0, v.Basket.Size())
	for _, item := range v.Basket.Items {
		// buAmount and Quantity are both 18-decimal scaled, so the product
		// carries two scale factors.
		amount := new(big.Int).Mul(buAmount, item.Quantity.Raw())
		amount.Div(amount, buScale)
		amount.Div(amount, buScale)
		amounts = append(amounts, amount)
	}
	return amounts, nil
}

// IssueBUs credits a holder and the total supply. Callers must have pulled
// the corresponding token amounts beforehand.
func (v *Vault) IssueBUs(to string, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if v.Basket.IsEmpty() {
		return ErrEmptyBasket
	}

	v.credit(to, amount)
	v.TotalUnits = new(big.Int).Add(v.TotalUnits, amount)
	return nil
}

// RedeemBUs debits a holder and the total supply. Callers must pay out the
// corresponding token amounts only after the debit has been applied.
func (v *Vault) RedeemBUs(from string, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if v.Basket.IsEmpty() {
		return ErrEmptyBasket
	}
	if v.BalanceOf(from).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	v.debit(from, amount)
	v.TotalUnits = new(big.Int).Sub(v.TotalUnits, amount)
	return nil
}

// SetAllowance approves a spender to pull up to amount BUs from an owner.
func (v *Vault) SetAllowance(owner, spender string, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if _, ok := v.Allowances[owner]; !ok {
		v.Allowances[owner] = map[string]*big.Int{}
	}
	v.Allowances[owner][spender] = new(big.Int).Set(amount)
	return nil
}

// PullBUs moves amount BUs from an owner to an approved spender,
// decrementing both the allowance and the owner balance.
func (v *Vault) PullBUs(spender, from string, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	allowance := v.Allowance(from, spender)
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if v.BalanceOf(from).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	v.Allowances[from][spender] = allowance.Sub(allowance, amount)
	v.debit(from, amount)
	v.credit(spender, amount)
	return nil
}

// BasketRate returns the fiat value of one basket unit: the sum over basket
// assets of quantity times redemption rate, scaled down by the asset's
// native precision. All arithmetic is overflow-checked.
func (v *Vault) BasketRate(
	ctx context.Context, rates RateSource,
) (fixedpoint.Fix, error) {
	total := fixedpoint.Zero()
	for _, item := range v.Basket.Items {
		rate, err := item.Collateral.RedemptionRate(ctx, rates)
		if err != nil {
			return fixedpoint.Fix{}, err
		}
		part, err := item.Quantity.Mul(rate)
		if err != nil {
			return fixedpoint.Fix{}, err
		}
		part, err = part.DivUint(item.Collateral.Asset.UnitScale())
		if err != nil {
			return fixedpoint.Fix{}, err
		}
		total, err = total.Add(part)
		if err != nil {
			return fixedpoint.Fix{}, err
		}
	}
	return total, nil
}

// MaxIssuable returns the highest BU amount the given per-asset token
// balances, in native smallest units, can back: the minimum over basket
// assets of balance over quantity.
func (v *Vault) MaxIssuable(balances map[string]*big.Int) (*big.Int, error) {
	if v.Basket.IsEmpty() {
		return nil, ErrEmptyBasket
	}

	var min *big.Int
	for _, item := range v.Basket.Items {
		if item.Quantity.IsZero() {
			continue
		}
		balance, ok := balances[item.Collateral.Asset.Address]
		if !ok {
			balance = big.NewInt(0)
		}
		issuable := new(big.Int).Mul(balance, buScale)
		issuable.Mul(issuable, buScale)
		issuable.Div(issuable, item.Quantity.Raw())
		if min == nil || issuable.Cmp(min) < 0 {
			min = issuable
		}
	}
	if min == nil {
		min = big.NewInt(0)
	}
	return min, nil
}

// SetBackupVaults replaces the owner-mutable backup vault list.
func (v *Vault) SetBackupVaults(vaults []string) {
	v.BackupVaults = append([]string{}, vaults...)
}

// SetRegistryAddr repoints the vault at a new protocol registry.
func (v *Vault) SetRegistryAddr(addr string) {
	v.RegistryAddr = addr
}

func (v *Vault) credit(holder string, amount *big.Int) {
	if bal, ok := v.Balances[holder]; ok {
		v.Balances[holder] = new(big.Int).Add(bal, amount)
		return
	}
	v.Balances[holder] = new(big.Int).Set(amount)
}

func (v *Vault) debit(holder string, amount *big.Int) {
	v.Balances[holder] = new(big.Int).Sub(v.Balances[holder], amount)
}
