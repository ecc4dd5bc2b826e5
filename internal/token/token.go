package token

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"frizo/argencoin_engine/internal/common"

	"github.com/shopspring/decimal"
)

var (
	ErrUnauthorized          = errors.New("caller is missing required role")
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Transfer is a journal entry recorded for every balance movement.
type Transfer struct {
	ID     string
	From   string
	To     string
	Amount decimal.Decimal
	At     time.Time
}

// Token is an in-process fungible token ledger: balances, allowances,
// role-gated minting and burning. It stands in for the ERC-20 style
// contracts the engines transfer value through.
type Token struct {
	name   string
	symbol string
	owner  string

	totalSupply decimal.Decimal
	balances    map[string]decimal.Decimal
	allowances  map[string]map[string]decimal.Decimal // owner -> spender -> amount
	minters     map[string]bool

	journal []Transfer

	mu sync.RWMutex
}

// New creates an empty token ledger. The owner may grant minter roles.
func New(name, symbol, owner string) *Token {
	return &Token{
		name:        name,
		symbol:      symbol,
		owner:       owner,
		totalSupply: decimal.Zero,
		balances:    make(map[string]decimal.Decimal),
		allowances:  make(map[string]map[string]decimal.Decimal),
		minters:     make(map[string]bool),
	}
}

func (t *Token) Name() string   { return t.name }
func (t *Token) Symbol() string { return t.symbol }
func (t *Token) Owner() string  { return t.owner }

// GrantMinter allows account to mint. Only the token owner may call it.
func (t *Token) GrantMinter(caller, account string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if caller != t.owner {
		return fmt.Errorf("%w: account %s is missing role minter-admin", ErrUnauthorized, caller)
	}
	t.minters[account] = true
	return nil
}

// IsMinter reports whether account holds the minter role.
func (t *Token) IsMinter(account string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.minters[account]
}

// Mint creates amount new tokens for to. Caller must hold the minter role.
func (t *Token) Mint(caller, to string, amount decimal.Decimal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.minters[caller] {
		return fmt.Errorf("%w: account %s is missing role minter", ErrUnauthorized, caller)
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	t.balances[to] = t.balance(to).Add(amount)
	t.totalSupply = t.totalSupply.Add(amount)
	t.record("", to, amount)
	return nil
}

// Burn destroys amount tokens from the caller's own balance.
func (t *Token) Burn(caller string, amount decimal.Decimal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	balance := t.balance(caller)
	if balance.LessThan(amount) {
		return fmt.Errorf("%s: %w", t.symbol, ErrInsufficientBalance)
	}

	t.balances[caller] = balance.Sub(amount)
	t.totalSupply = t.totalSupply.Sub(amount)
	t.record(caller, "", amount)
	return nil
}

// Transfer moves amount from from's balance to to.
func (t *Token) Transfer(from, to string, amount decimal.Decimal) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transfer(from, to, amount)
}

// Approve lets spender move up to amount out of owner's balance via
// TransferFrom. A new approval replaces the previous one.
func (t *Token) Approve(owner, spender string, amount decimal.Decimal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	if _, ok := t.allowances[owner]; !ok {
		t.allowances[owner] = make(map[string]decimal.Decimal)
	}
	t.allowances[owner][spender] = amount
	return nil
}

// Allowance returns what spender may still move out of owner's balance.
func (t *Token) Allowance(owner, spender string) decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.allowance(owner, spender)
}

// TransferFrom moves amount from from's balance to to, spending
// spender's allowance.
func (t *Token) TransferFrom(spender, from, to string, amount decimal.Decimal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowance := t.allowance(from, spender)
	if allowance.LessThan(amount) {
		return fmt.Errorf("%s: %w", t.symbol, ErrInsufficientAllowance)
	}
	if err := t.transfer(from, to, amount); err != nil {
		return err
	}
	t.allowances[from][spender] = allowance.Sub(amount)
	return nil
}

// BalanceOf returns the balance of account (zero if unknown).
func (t *Token) BalanceOf(account string) decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balance(account)
}

// TotalSupply returns the outstanding token supply.
func (t *Token) TotalSupply() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalSupply
}

// Journal returns a copy of the recorded transfers. Mints have an
// empty From, burns an empty To.
func (t *Token) Journal() []Transfer {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := make([]Transfer, len(t.journal))
	copy(entries, t.journal)
	return entries
}

// =====================================================
// private func (caller must hold t.mu)
// =====================================================

func (t *Token) balance(account string) decimal.Decimal {
	if balance, ok := t.balances[account]; ok {
		return balance
	}
	return decimal.Zero
}

func (t *Token) allowance(owner, spender string) decimal.Decimal {
	if spenders, ok := t.allowances[owner]; ok {
		if amount, ok := spenders[spender]; ok {
			return amount
		}
	}
	return decimal.Zero
}

func (t *Token) transfer(from, to string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	balance := t.balance(from)
	if balance.LessThan(amount) {
		return fmt.Errorf("%s: %w", t.symbol, ErrInsufficientBalance)
	}

	t.balances[from] = balance.Sub(amount)
	t.balances[to] = t.balance(to).Add(amount)
	t.record(from, to, amount)
	return nil
}

func (t *Token) record(from, to string, amount decimal.Decimal) {
	t.journal = append(t.journal, Transfer{
		ID:     common.GenerateTransferID(),
		From:   from,
		To:     to,
		Amount: amount,
		At:     time.Now(),
	})
}
