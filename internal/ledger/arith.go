package ledger

import "math/bits"

// AddUint64 returns a+b or ErrArithmeticOverflow.
func AddUint64(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

// SubUint64 returns a-b or ErrArithmeticUnderflow.
func SubUint64(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrArithmeticUnderflow
	}
	return diff, nil
}

// MulUint64 returns a*b or ErrArithmeticOverflow.
func MulUint64(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrArithmeticOverflow
	}
	return lo, nil
}

// PowUint64 returns base^exp or ErrArithmeticOverflow.
func PowUint64(base uint64, exp uint8) (uint64, error) {
	result := uint64(1)
	for i := uint8(0); i < exp; i++ {
		var err error
		if result, err = MulUint64(result, base); err != nil {
			return 0, err
		}
	}
	return result, nil
}
