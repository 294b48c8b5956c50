package aggregate

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	feeDenominator = 10_000_000_000
	tokenDecimals  = 18
)

// formatUnits renders a base-unit amount in whole tokens.
func formatUnits(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -tokenDecimals).String()
}

func bigString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
