// Package simulator provides in-memory implementations of the protocol's
// external collaborators (token ledger, price oracle, redemption rates,
// auction market, chain clock). They back local runs and unit tests; real
// chain adapters are out of scope for this daemon.
package simulator

import (
	"context"
	"errors"
	"math/big"
	"sync"
)

var (
	// ErrInsufficientTokenBalance is thrown when moving more tokens than the
	// account owns.
	ErrInsufficientTokenBalance = errors.New("insufficient token balance")
	// ErrInsufficientTokenAllowance is thrown when a spender moves more
	// tokens than approved.
	ErrInsufficientTokenAllowance = errors.New("insufficient token allowance")
)

// TokenService is an in-memory token ledger with standard
// balance/transfer/approval semantics.
type TokenService struct {
	// balances maps asset to account to balance in native smallest units.
	balances map[string]map[string]*big.Int
	// allowances maps asset to owner to spender to approved amount.
	allowances map[string]map[string]map[string]*big.Int

	lock *sync.RWMutex
}

// NewTokenService returns an empty token ledger.
func NewTokenService() *TokenService {
	return &TokenService{
		balances:   map[string]map[string]*big.Int{},
		allowances: map[string]map[string]map[string]*big.Int{},
		lock:       &sync.RWMutex{},
	}
}

// Mint credits an account out of thin air. Test and bootstrap helper.
func (s *TokenService) Mint(asset, account string, amount *big.Int) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.credit(asset, account, amount)
}

// BalanceOf returns the token balance of an account.
func (s *TokenService) BalanceOf(
	_ context.Context, asset, account string,
) (*big.Int, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return new(big.Int).Set(s.balanceOf(asset, account)), nil
}

// Transfer moves tokens from one account to another.
func (s *TokenService) Transfer(
	_ context.Context, asset, from, to string, amount *big.Int,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.transfer(asset, from, to, amount)
}

// TransferFrom moves tokens on behalf of an owner, consuming the spender's
// approval.
func (s *TokenService) TransferFrom(
	_ context.Context, asset, spender, from, to string, amount *big.Int,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	allowance := s.allowanceOf(asset, from, spender)
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientTokenAllowance
	}
	if err := s.transfer(asset, from, to, amount); err != nil {
		return err
	}
	s.allowances[asset][from][spender] = new(big.Int).Sub(allowance, amount)
	return nil
}

// Approve grants a spender the right to move up to amount tokens from the
// owner account.
func (s *TokenService) Approve(
	_ context.Context, asset, owner, spender string, amount *big.Int,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.allowances[asset]; !ok {
		s.allowances[asset] = map[string]map[string]*big.Int{}
	}
	if _, ok := s.allowances[asset][owner]; !ok {
		s.allowances[asset][owner] = map[string]*big.Int{}
	}
	s.allowances[asset][owner][spender] = new(big.Int).Set(amount)
	return nil
}

func (s *TokenService) transfer(asset, from, to string, amount *big.Int) error {
	balance := s.balanceOf(asset, from)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientTokenBalance
	}
	s.balances[asset][from] = new(big.Int).Sub(balance, amount)
	s.credit(asset, to, amount)
	return nil
}

func (s *TokenService) credit(asset, account string, amount *big.Int) {
	if _, ok := s.balances[asset]; !ok {
		s.balances[asset] = map[string]*big.Int{}
	}
	if balance, ok := s.balances[asset][account]; ok {
		s.balances[asset][account] = new(big.Int).Add(balance, amount)
		return
	}
	s.balances[asset][account] = new(big.Int).Set(amount)
}

func (s *TokenService) balanceOf(asset, account string) *big.Int {
	if accounts, ok := s.balances[asset]; ok {
		if balance, ok := accounts[account]; ok {
			return balance
		}
	}
	return big.NewInt(0)
}

func (s *TokenService) allowanceOf(asset, owner, spender string) *big.Int {
	if owners, ok := s.allowances[asset]; ok {
		if spenders, ok := owners[owner]; ok {
			if amount, ok := spenders[spender]; ok {
				return amount
			}
		}
	}
	return big.NewInt(0)
}
