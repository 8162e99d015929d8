package tx

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmountDigits bounds amounts to what fits in 256 bits (78 digits), which
// is more than any EGLD or ESDT supply.
const maxAmountDigits = 78

// ParseAmount converts a human amount ("1.5") into smallest units using
// exact decimal arithmetic. The result must be a positive integer.
func ParseAmount(human string, decimals int) (*big.Int, error) {
	human = strings.TrimSpace(human)
	if human == "" {
		return nil, invalid("amount", "is required")
	}

	d, err := decimal.NewFromString(human)
	if err != nil {
		return nil, invalid("amount", fmt.Sprintf("%q is not a number", human))
	}
	if !d.IsPositive() {
		return nil, invalid("amount", "must be greater than zero")
	}
	// Bound the exponent before Shift/BigInt expand it into a huge integer.
	exp := int64(d.Exponent())
	if int64(len(d.Coefficient().String()))+exp+int64(decimals) > maxAmountDigits {
		return nil, invalid("amount", "is too large")
	}
	if -exp > maxAmountDigits {
		return nil, invalid("amount", fmt.Sprintf("has more than %d decimal places", decimals))
	}

	raw := d.Shift(int32(decimals))
	if !raw.IsInteger() {
		return nil, invalid("amount", fmt.Sprintf("has more than %d decimal places", decimals))
	}
	return raw.BigInt(), nil
}

// ParseRawAmount validates an amount already expressed in smallest units.
func ParseRawAmount(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if len(strings.TrimLeft(raw, "+-0")) > maxAmountDigits {
		return nil, invalid("amount", "is too large")
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, invalid("amount", fmt.Sprintf("%q is not an integer", raw))
	}
	if v.Sign() <= 0 {
		return nil, invalid("amount", "must be greater than zero")
	}
	return v, nil
}

// FormatAmount renders smallest units as a human amount with trailing zeros
// trimmed ("1500000000000000000", 18 -> "1.5"). Unparseable input is
// returned unchanged.
func FormatAmount(raw string, decimals int) string {
	v, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return raw
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

// FormatAmountFixed is FormatAmount rounded down to places digits, padded.
func FormatAmountFixed(raw string, decimals, places int) string {
	v, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return raw
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).Truncate(int32(places)).StringFixed(int32(places))
}
