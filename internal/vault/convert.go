package vault

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/jambo-bank/jambo_bank/internal/ledger"
)

// DefaultScale is the number of internal units per whole token.
const DefaultScale uint64 = 100

// ErrInvalidScale is returned for a zero conversion scale.
var ErrInvalidScale = errors.New("internal unit scale must be positive")

// ToTokenUnits converts an internal amount into token base units as
// amount * 10^decimals / scale. The division truncates; the discarded part
// is returned as remainder, expressed in units of 1/scale base units.
func ToTokenUnits(amount uint64, decimals uint8, scale uint64) (units, remainder uint64, err error) {
	if scale == 0 {
		return 0, 0, ErrInvalidScale
	}
	factor, err := ledger.PowUint64(10, decimals)
	if err != nil {
		return 0, 0, err
	}
	product, err := ledger.MulUint64(amount, factor)
	if err != nil {
		return 0, 0, err
	}
	return product / scale, product % scale, nil
}

// FormatUnits renders base units as a decimal token amount.
func FormatUnits(units uint64, decimals uint8) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -int32(decimals)).String()
}

// FormatInternal renders an internal amount in whole tokens.
func FormatInternal(amount, scale uint64) string {
	if scale == 0 {
		return "0"
	}
	n := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0)
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(scale), 0)
	return n.DivRound(d, 18).String()
}
