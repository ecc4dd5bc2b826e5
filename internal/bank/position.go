package bank

import (
	"github.com/shopspring/decimal"

	"frizo/argencoin_engine/internal/common"
)

// Position is a borrower's collateral deposit and minted debt for one
// collateral symbol. The zero value is the empty (closed) position.
type Position struct {
	CollateralAmount decimal.Decimal `json:"collateral_amount"`
	MintedAmount     decimal.Decimal `json:"minted_amount"`
}

// IsOpen reports whether the position carries outstanding debt.
// An open position always holds collateral.
func (p Position) IsOpen() bool {
	return p.MintedAmount.IsPositive()
}

// LiquidationPriceLimit is the collateral rate at or below which the
// position may be liquidated. Zero for a closed position.
func (p Position) LiquidationPriceLimit(liquidationBP uint32) decimal.Decimal {
	if !p.IsOpen() {
		return decimal.Zero
	}
	return LiquidationPriceLimit(p.MintedAmount, liquidationBP, p.CollateralAmount)
}

// LiquidationPriceLimit computes mintedAmount * liquidationRatio / collateralAmount.
func LiquidationPriceLimit(mintedAmount decimal.Decimal, liquidationBP uint32, collateralAmount decimal.Decimal) decimal.Decimal {
	debtValue := mintedAmount.Mul(common.FromBasisPoints(liquidationBP))
	return common.Div(debtValue, collateralAmount)
}
