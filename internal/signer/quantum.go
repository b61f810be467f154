package signer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/GoParadex/paragate/internal/pkg/apperrors"
)

// QuantumPrecision is the fixed-point precision the exchange expects for
// order sizes and prices.
const QuantumPrecision int32 = 8

// ToQuantums converts a human-readable decimal amount into its integer
// quantum representation at the given precision: amount * 10^precision,
// truncated toward negative infinity. Arbitrary-precision arithmetic only;
// float64 would drift on financial quantities.
func ToQuantums(amount string, precision int32) (string, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "", apperrors.NewParse(fmt.Sprintf("invalid decimal amount %q", amount), err)
	}
	return d.Shift(precision).Floor().String(), nil
}
