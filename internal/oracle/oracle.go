package oracle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrUnauthorized = errors.New("caller is not the owner")
	ErrNoRate       = errors.New("no rate available")
	ErrInvalidRate  = errors.New("rate must be greater than zero")
)

// RatesOracle is the owner-gated price feed: it maps a collateral
// symbol to its rate denominated in argencoin units. How rates are
// sourced and kept honest is outside this process.
type RatesOracle struct {
	owner string
	rates map[string]decimal.Decimal
	mu    sync.RWMutex
}

// New creates an oracle with no rates set.
func New(owner string) *RatesOracle {
	return &RatesOracle{
		owner: owner,
		rates: make(map[string]decimal.Decimal),
	}
}

func (o *RatesOracle) Owner() string { return o.owner }

// SetRate stores the argencoin rate for symbol. Owner only; the rate
// must be strictly positive, a zero rate would mark every position
// liquidatable.
func (o *RatesOracle) SetRate(caller, symbol string, rate decimal.Decimal) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if caller != o.owner {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	if !rate.IsPositive() {
		return fmt.Errorf("%w: %s for %s", ErrInvalidRate, rate, symbol)
	}
	o.rates[symbol] = rate
	return nil
}

// Rate returns the argencoin rate for symbol, or ErrNoRate if it has
// never been set.
func (o *RatesOracle) Rate(symbol string) (decimal.Decimal, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	rate, ok := o.rates[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w for %s", ErrNoRate, symbol)
	}
	return rate, nil
}
