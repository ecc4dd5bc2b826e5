package common

import "github.com/shopspring/decimal"

// FractionalDigits is the shared fixed-point scale of every token
// amount, rate and accumulator in the protocol. All tokens carry the
// same scale, so no rescaling happens at token boundaries.
const FractionalDigits = 18

// BasisPointsDivisor: 10000 basis points = 100%.
const BasisPointsDivisor = 10000

var bpDivisor = decimal.NewFromInt(BasisPointsDivisor)

// Div divides a by b truncating toward zero at FractionalDigits.
// Truncation loss always favors the protocol over the caller.
func Div(a, b decimal.Decimal) decimal.Decimal {
	q, _ := a.QuoRem(b, FractionalDigits)
	return q
}

// FromBasisPoints converts basis points to a decimal ratio
// (15000 bp -> 1.5).
func FromBasisPoints(bp uint32) decimal.Decimal {
	return Div(decimal.NewFromInt(int64(bp)), bpDivisor)
}

// ApplyBasisPoints returns amount * bp / 10000, truncated.
func ApplyBasisPoints(amount decimal.Decimal, bp uint32) decimal.Decimal {
	return Div(amount.Mul(decimal.NewFromInt(int64(bp))), bpDivisor)
}
