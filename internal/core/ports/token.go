package ports

import (
	"context"
	"math/big"
)

// TokenService is the standard token transfer primitive the protocol moves
// collateral with. Amounts are in the token's native smallest units.
type TokenService interface {
	// BalanceOf returns the token balance of an account.
	BalanceOf(ctx context.Context, asset, account string) (*big.Int, error)
	// Transfer moves tokens from one account to another.
	Transfer(ctx context.Context, asset, from, to string, amount *big.Int) error
	// TransferFrom moves tokens on behalf of an owner, consuming a prior
	// approval granted to the spender.
	TransferFrom(
		ctx context.Context, asset, spender, from, to string, amount *big.Int,
	) error
	// Approve grants a spender the right to move up to amount tokens from
	// the owner account.
	Approve(ctx context.Context, asset, owner, spender string, amount *big.Int) error
}

// RewardsClaimer claims external protocol rewards accrued by an account and
// returns the reward asset addresses whose balances may have grown.
type RewardsClaimer interface {
	Claim(ctx context.Context, account string) ([]string, error)
}
