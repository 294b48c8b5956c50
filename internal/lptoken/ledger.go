// Package lptoken is an in-memory fungible share ledger used as the pool's LP
// token.
package lptoken

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrMintZero            = errors.New("lptoken: cannot mint 0")
	ErrSelfTransfer        = errors.New("lptoken: cannot send to itself")
	ErrInsufficientBalance = errors.New("lptoken: insufficient balance")
	ErrZeroAddress         = errors.New("lptoken: zero address")
)

// Ledger tracks share balances and total supply.
type Ledger struct {
	name    string
	symbol  string
	address common.Address

	mu       sync.RWMutex
	supply   *uint256.Int
	balances map[common.Address]*uint256.Int
}

// NewLedger creates an empty ledger. address identifies the token itself and
// cannot receive transfers.
func NewLedger(name, symbol string, address common.Address) *Ledger {
	return &Ledger{
		name:     name,
		symbol:   symbol,
		address:  address,
		supply:   new(uint256.Int),
		balances: make(map[common.Address]*uint256.Int),
	}
}

func (l *Ledger) Name() string            { return l.name }
func (l *Ledger) Symbol() string          { return l.symbol }
func (l *Ledger) Address() common.Address { return l.address }

// TotalSupply returns a copy of the outstanding supply.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.supply.Clone()
}

// BalanceOf returns a copy of the account balance.
func (l *Ledger) BalanceOf(account common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if bal, ok := l.balances[account]; ok {
		return bal.Clone()
	}
	return new(uint256.Int)
}

// Mint credits amount to the account.
func (l *Ledger) Mint(to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return ErrMintZero
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	supply, overflow := new(uint256.Int).AddOverflow(l.supply, amount)
	if overflow {
		return fmt.Errorf("mint %s: supply overflow", amount)
	}
	l.supply = supply
	l.credit(to, amount)
	return nil
}

// Burn debits amount from the account.
func (l *Ledger) Burn(from common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.debit(from, amount); err != nil {
		return err
	}
	l.supply = new(uint256.Int).Sub(l.supply, amount)
	return nil
}

// Transfer moves amount between accounts.
func (l *Ledger) Transfer(from, to common.Address, amount *uint256.Int) error {
	if to == l.address {
		return ErrSelfTransfer
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.debit(from, amount); err != nil {
		return err
	}
	l.credit(to, amount)
	return nil
}

// Holders returns a snapshot of every nonzero balance.
func (l *Ledger) Holders() map[common.Address]*uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[common.Address]*uint256.Int, len(l.balances))
	for account, bal := range l.balances {
		out[account] = bal.Clone()
	}
	return out
}

// Restore replaces the ledger contents. Supply is recomputed from balances.
func (l *Ledger) Restore(balances map[common.Address]*uint256.Int) error {
	supply := new(uint256.Int)
	next := make(map[common.Address]*uint256.Int, len(balances))
	for account, bal := range balances {
		if bal == nil || bal.IsZero() {
			continue
		}
		var overflow bool
		supply, overflow = new(uint256.Int).AddOverflow(supply, bal)
		if overflow {
			return fmt.Errorf("restore ledger: supply overflow")
		}
		next[account] = bal.Clone()
	}

	l.mu.Lock()
	l.supply = supply
	l.balances = next
	l.mu.Unlock()
	return nil
}

func (l *Ledger) credit(account common.Address, amount *uint256.Int) {
	bal, ok := l.balances[account]
	if !ok {
		bal = new(uint256.Int)
	}
	l.balances[account] = new(uint256.Int).Add(bal, amount)
}

func (l *Ledger) debit(account common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	bal, ok := l.balances[account]
	if !ok || bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	next := new(uint256.Int).Sub(bal, amount)
	if next.IsZero() {
		delete(l.balances, account)
		return nil
	}
	l.balances[account] = next
	return nil
}
