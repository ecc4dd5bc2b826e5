package bank

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"frizo/argencoin_engine/internal/common"
	"frizo/argencoin_engine/internal/oracle"
	"frizo/argencoin_engine/internal/token"
)

var (
	ErrUnauthorized           = errors.New("caller is not the owner")
	ErrUnknownToken           = errors.New("unknown collateral token")
	ErrTokenAlreadySet        = errors.New("token is already set, call EditCollateralToken instead")
	ErrInvalidParameter       = errors.New("invalid parameter")
	ErrBelowMinimum           = errors.New("must mint at least 1 argencoin")
	ErrPositionOpen           = errors.New("previous minted position exists, burn it first")
	ErrNoPosition             = errors.New("position not found")
	ErrInsufficientCollateral = errors.New("not enough collateral")
	ErrNotLiquidatable        = errors.New("position is not under liquidation value")
)

var oneArgencoin = decimal.NewFromInt(1)

// CentralBank issues argencoin against registered collateral tokens.
// It owns the collateral token registry, the ratio/fee parameters and
// the position ledger; prices come from the RatesOracle and value
// moves through the token ledgers.
type CentralBank struct {
	address string
	owner   string

	argencoin      *token.Token
	rates          *oracle.RatesOracle
	stakingAddress string

	collateralTokens map[string]*token.Token

	collateralBP  uint32
	liquidationBP uint32
	mintingFeeBP  uint32

	positions map[string]Position

	mu sync.RWMutex
}

// New creates a CentralBank. Parameters follow the same rules as
// SetCollateralPercentages and SetMintingFee. The bank must be
// granted the minter role on the argencoin token before Mint is used.
func New(owner string, argencoin *token.Token, rates *oracle.RatesOracle, stakingAddress string, collateralBP, liquidationBP, mintingFeeBP uint32) (*CentralBank, error) {
	if err := validatePercentages(collateralBP, liquidationBP); err != nil {
		return nil, err
	}
	if err := validateMintingFee(mintingFeeBP); err != nil {
		return nil, err
	}

	return &CentralBank{
		address:          common.GenerateAccountID("bank"),
		owner:            owner,
		argencoin:        argencoin,
		rates:            rates,
		stakingAddress:   stakingAddress,
		collateralTokens: make(map[string]*token.Token),
		collateralBP:     collateralBP,
		liquidationBP:    liquidationBP,
		mintingFeeBP:     mintingFeeBP,
		positions:        make(map[string]Position),
	}, nil
}

// Address is the bank's account on the token ledgers. Users approve
// it before minting or burning.
func (b *CentralBank) Address() string { return b.address }

func (b *CentralBank) Owner() string { return b.owner }

// =====================================================
// Collateral token registry
// =====================================================

// AddCollateralToken registers a new collateral symbol. Owner only.
func (b *CentralBank) AddCollateralToken(caller, symbol string, tok *token.Token) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.assertOwner(caller); err != nil {
		return err
	}
	if _, exists := b.collateralTokens[symbol]; exists {
		return fmt.Errorf("%w: %s", ErrTokenAlreadySet, symbol)
	}

	b.collateralTokens[symbol] = tok
	return nil
}

// EditCollateralToken replaces the token behind an already registered
// symbol. Owner only. Symbols can never be removed.
func (b *CentralBank) EditCollateralToken(caller, symbol string, tok *token.Token) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.assertOwner(caller); err != nil {
		return err
	}
	if _, exists := b.collateralTokens[symbol]; !exists {
		return fmt.Errorf("%w: %s is not set yet, call AddCollateralToken", ErrUnknownToken, symbol)
	}

	b.collateralTokens[symbol] = tok
	return nil
}

// CollateralToken returns the token registered for symbol.
func (b *CentralBank) CollateralToken(symbol string) (*token.Token, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.collateralToken(symbol)
}

// =====================================================
// Protocol parameters
// =====================================================

// SetCollateralPercentages updates both ratios atomically. Owner only.
// Both must exceed 100% and the liquidation ratio must stay strictly
// below the collateral ratio.
func (b *CentralBank) SetCollateralPercentages(caller string, collateralBP, liquidationBP uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.assertOwner(caller); err != nil {
		return err
	}
	if err := validatePercentages(collateralBP, liquidationBP); err != nil {
		return err
	}

	b.collateralBP = collateralBP
	b.liquidationBP = liquidationBP
	return nil
}

// SetMintingFee updates the minting fee. Owner only, max 10000 bp.
func (b *CentralBank) SetMintingFee(caller string, feeBP uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.assertOwner(caller); err != nil {
		return err
	}
	if err := validateMintingFee(feeBP); err != nil {
		return err
	}

	b.mintingFeeBP = feeBP
	return nil
}

func (b *CentralBank) MintingFee() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mintingFeeBP
}

func (b *CentralBank) CollateralBasisPoints() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.collateralBP
}

func (b *CentralBank) LiquidationBasisPoints() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.liquidationBP
}

// =====================================================
// Solvency math
// =====================================================

// MaxMintable returns how much argencoin collateralAmount can back at
// the current rate, after the minting fee is carved out of the
// deposit. The fee is paid from the supplied collateral, not on top.
func (b *CentralBank) MaxMintable(symbol string, collateralAmount decimal.Decimal) (decimal.Decimal, error) {
	rate, err := b.rates.Rate(symbol)
	if err != nil {
		return decimal.Zero, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.maxMintableAt(rate, collateralAmount), nil
}

// FeeAmount returns the collateral fee charged for minting mintAmount
// at the current rate: feeBP of the total collateral that must be
// supplied to back mintAmount.
func (b *CentralBank) FeeAmount(symbol string, mintAmount decimal.Decimal) (decimal.Decimal, error) {
	rate, err := b.rates.Rate(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: rate must be greater than zero", ErrInvalidParameter)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.mintingFeeBP >= common.BasisPointsDivisor {
		return decimal.Zero, fmt.Errorf("%w: minting fee consumes the entire deposit", ErrInvalidParameter)
	}
	return b.feeAmountAt(rate, mintAmount), nil
}

// =====================================================
// State transitions
// =====================================================

// Mint opens a position: it pulls collateralAmount of the collateral
// token from the caller (which must be pre-approved), forwards the
// minting fee to the staking engine and mints mintAmount argencoin to
// the caller. The position keeps collateralAmount minus the fee.
func (b *CentralBank) Mint(caller string, mintAmount decimal.Decimal, symbol string, collateralAmount decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if mintAmount.LessThan(oneArgencoin) {
		return ErrBelowMinimum
	}
	collateral, err := b.collateralToken(symbol)
	if err != nil {
		return err
	}
	key := positionKey(caller, symbol)
	if b.positions[key].IsOpen() {
		return ErrPositionOpen
	}

	rate, err := b.rates.Rate(symbol)
	if err != nil {
		return err
	}
	if mintAmount.GreaterThan(b.maxMintableAt(rate, collateralAmount)) {
		return ErrInsufficientCollateral
	}
	fee := b.feeAmountAt(rate, mintAmount)

	// Pull the whole deposit first, then mint. If the argencoin mint
	// fails (e.g. the bank lost the minter role) the deposit goes back
	// to the caller; the fee only moves once the mint is through.
	if err := collateral.TransferFrom(b.address, caller, b.address, collateralAmount); err != nil {
		return err
	}
	if err := b.argencoin.Mint(b.address, caller, mintAmount); err != nil {
		if refundErr := collateral.Transfer(b.address, caller, collateralAmount); refundErr != nil {
			return errors.Join(err, refundErr)
		}
		return err
	}
	if fee.IsPositive() {
		if err := collateral.Transfer(b.address, b.stakingAddress, fee); err != nil {
			return err
		}
	}

	b.positions[key] = Position{
		CollateralAmount: collateralAmount.Sub(fee),
		MintedAmount:     mintAmount,
	}
	return nil
}

// Burn closes the caller's position for symbol: the minted argencoin
// is pulled back (must be pre-approved) and destroyed, and the
// position's collateral returns to the caller. No fee on the way out.
func (b *CentralBank) Burn(caller, symbol string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := positionKey(caller, symbol)
	position := b.positions[key]
	if !position.IsOpen() {
		return fmt.Errorf("%w: no argencoins minted with sent collateral", ErrNoPosition)
	}
	collateral, err := b.collateralToken(symbol)
	if err != nil {
		return err
	}

	if err := b.argencoin.TransferFrom(b.address, caller, b.address, position.MintedAmount); err != nil {
		return err
	}
	if err := b.argencoin.Burn(b.address, position.MintedAmount); err != nil {
		return err
	}

	// Clear the position before paying collateral out.
	delete(b.positions, key)

	return collateral.Transfer(b.address, caller, position.CollateralAmount)
}

// Liquidate closes debtor's position once the rate has fallen to the
// liquidation limit or below. The caller pays the debtor's minted
// amount (burned) and receives the position's collateral. No fee.
func (b *CentralBank) Liquidate(caller, debtor, symbol string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := positionKey(debtor, symbol)
	position := b.positions[key]
	if !position.IsOpen() {
		return ErrNoPosition
	}
	collateral, err := b.collateralToken(symbol)
	if err != nil {
		return err
	}
	rate, err := b.rates.Rate(symbol)
	if err != nil {
		return err
	}

	limit := position.LiquidationPriceLimit(b.liquidationBP)
	if rate.GreaterThan(limit) {
		return ErrNotLiquidatable
	}

	if err := b.argencoin.TransferFrom(b.address, caller, b.address, position.MintedAmount); err != nil {
		return err
	}
	if err := b.argencoin.Burn(b.address, position.MintedAmount); err != nil {
		return err
	}

	delete(b.positions, key)

	return collateral.Transfer(b.address, caller, position.CollateralAmount)
}

// GetPosition returns owner's position for symbol, or the zero
// position if none exists.
func (b *CentralBank) GetPosition(owner, symbol string) Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.positions[positionKey(owner, symbol)]
}

// =====================================================
// private func
// =====================================================

func (b *CentralBank) assertOwner(caller string) error {
	if caller != b.owner {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	return nil
}

func (b *CentralBank) collateralToken(symbol string) (*token.Token, error) {
	if tok, exists := b.collateralTokens[symbol]; exists {
		return tok, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownToken, symbol)
}

func (b *CentralBank) maxMintableAt(rate, collateralAmount decimal.Decimal) decimal.Decimal {
	netCollateral := common.ApplyBasisPoints(collateralAmount, common.BasisPointsDivisor-b.mintingFeeBP)
	return common.Div(netCollateral.Mul(rate), common.FromBasisPoints(b.collateralBP))
}

func (b *CentralBank) feeAmountAt(rate, mintAmount decimal.Decimal) decimal.Decimal {
	// required + fee is the total deposit, and fee is exactly
	// mintingFeeBP of that total.
	required := common.Div(mintAmount.Mul(common.FromBasisPoints(b.collateralBP)), rate)
	feeBP := decimal.NewFromInt(int64(b.mintingFeeBP))
	netBP := decimal.NewFromInt(int64(common.BasisPointsDivisor - b.mintingFeeBP))
	return common.Div(required.Mul(feeBP), netBP)
}

func validatePercentages(collateralBP, liquidationBP uint32) error {
	if collateralBP <= liquidationBP {
		return fmt.Errorf("%w: collateral percentage must be greater than liquidation percentage", ErrInvalidParameter)
	}
	if collateralBP <= common.BasisPointsDivisor || liquidationBP <= common.BasisPointsDivisor {
		return fmt.Errorf("%w: collateral and liquidation percentages must be greater than 100%% (10000 basis points)", ErrInvalidParameter)
	}
	return nil
}

func validateMintingFee(feeBP uint32) error {
	if feeBP > common.BasisPointsDivisor {
		return fmt.Errorf("%w: max minting fee is 10000 basis points", ErrInvalidParameter)
	}
	return nil
}

// positionKey: one position per (owner, symbol)
func positionKey(owner, symbol string) string {
	return fmt.Sprintf("%s_%s", owner, symbol)
}
