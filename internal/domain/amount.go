package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// MaxDivisibility is the largest number of minor-unit places a currency may use.
	MaxDivisibility = 18
	// MaxAmountDigits bounds the significant digits of any stored amount.
	MaxAmountDigits = 30
	// MaxAmountPlaces bounds the fractional digits of any stored amount.
	MaxAmountPlaces = 18
)

// ValidateAmount rejects amounts the processor and ledger cannot represent.
func ValidateAmount(amount decimal.Decimal) error {
	digits, places := precision(amount)
	if places > MaxAmountPlaces {
		return NewInvalidAmountError(
			fmt.Sprintf("amount %s has more than %d decimal places", amount, MaxAmountPlaces),
		)
	}
	if digits > MaxAmountDigits {
		return NewInvalidAmountError(
			fmt.Sprintf("amount %s has more than %d digits", amount, MaxAmountDigits),
		)
	}
	return nil
}

// ToMinorUnits scales amount by 10^divisibility, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal, divisibility int) (int64, error) {
	if err := validateDivisibility(divisibility); err != nil {
		return 0, err
	}
	if err := ValidateAmount(amount); err != nil {
		return 0, err
	}

	scaled := amount.Shift(int32(divisibility)).Round(0)
	minor := scaled.BigInt()
	if !minor.IsInt64() {
		return 0, NewInvalidAmountError(fmt.Sprintf("amount %s overflows minor units", amount))
	}

	return minor.Int64(), nil
}

// FromMinorUnits is the exact inverse of ToMinorUnits for integral inputs.
func FromMinorUnits(amount int64, divisibility int) (decimal.Decimal, error) {
	if err := validateDivisibility(divisibility); err != nil {
		return decimal.Zero, err
	}
	return decimal.New(amount, -int32(divisibility)), nil
}

func validateDivisibility(divisibility int) error {
	if divisibility < 0 || divisibility > MaxDivisibility {
		return NewInvalidAmountError(
			fmt.Sprintf("divisibility %d outside 0..%d", divisibility, MaxDivisibility),
		)
	}
	return nil
}

// precision mirrors how a decimal column counts digits: trailing zeros in
// the integer part count, leading zeros of a pure fraction do not.
func precision(amount decimal.Decimal) (digits, places int) {
	coefficient := amount.Coefficient()
	coefficient.Abs(coefficient)

	n := len(coefficient.String())
	if coefficient.Sign() == 0 {
		n = 1
	}

	exp := int(amount.Exponent())
	if exp >= 0 {
		return n + exp, 0
	}

	places = -exp
	if places > n {
		return places, places
	}
	return n, places
}
