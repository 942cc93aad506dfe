package units

import (
	"fmt"
	"math/big"
	"strings"
)

// Decimals is the number of decimal places carried by the SIN token.
const Decimals = 18

var base = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// Parse converts a decimal token amount string (e.g. "900" or "12.5") into
// base units (18 decimals).
func Parse(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("negative amount not allowed: %s", amount)
	}

	whole := amount
	frac := ""
	if idx := strings.IndexByte(amount, '.'); idx >= 0 {
		whole = amount[:idx]
		frac = amount[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > Decimals {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, Decimals)
	}

	wholeInt, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}
	result := new(big.Int).Mul(wholeInt, base)

	if frac != "" {
		fracInt, ok := new(big.Int).SetString(frac, 10)
		if !ok {
			return nil, fmt.Errorf("invalid amount: %s", amount)
		}
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(Decimals-len(frac))), nil)
		result.Add(result, fracInt.Mul(fracInt, scale))
	}

	return result, nil
}

// MustParse is Parse for compile-time constants; it panics on bad input.
func MustParse(amount string) *big.Int {
	v, err := Parse(amount)
	if err != nil {
		panic(err)
	}
	return v
}

// Format converts base units back into a decimal token amount string.
// Mirrors ethers formatEther output: "900.0", "12.5".
func Format(v *big.Int) string {
	if v == nil {
		return "0.0"
	}
	whole := new(big.Int)
	frac := new(big.Int)
	whole.QuoRem(v, base, frac)

	digits := frac.String()
	if len(digits) < Decimals {
		digits = strings.Repeat("0", Decimals-len(digits)) + digits
	}
	fracStr := strings.TrimRight(digits, "0")
	if fracStr == "" {
		fracStr = "0"
	}
	return whole.String() + "." + fracStr
}
