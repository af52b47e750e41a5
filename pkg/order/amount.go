package order

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/minwoo-j/delegator/params"
)

var unitScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(params.NativeDecimals), nil)

// ParseAmount converts a human-entered decimal MON amount ("0.5") into
// wei as an exact integer. Inputs that are non-numeric, zero, negative,
// or need more than 18 fractional digits are rejected: the chain's
// minimal unit cannot represent them without rounding. Floats are never
// involved at any point.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return nil, fmt.Errorf("%w: signed input %q", ErrInvalidAmount, s)
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (hasFrac && frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}
	if len(frac) > params.NativeDecimals {
		return nil, fmt.Errorf("%w: %q exceeds %d decimal places", ErrInvalidAmount, s, params.NativeDecimals)
	}

	// whole*10^18 + frac padded to 18 digits
	frac += strings.Repeat("0", params.NativeDecimals-len(frac))
	wei, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if wei.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	return wei, nil
}

// FormatAmount renders wei as a decimal MON string with trailing zeros
// trimmed ("500000000000000000" → "0.5").
func FormatAmount(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	whole, frac := new(big.Int).QuoRem(wei, unitScale, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String()
	}
	fs := frac.String()
	fs = strings.Repeat("0", params.NativeDecimals-len(fs)) + fs
	return whole.String() + "." + strings.TrimRight(fs, "0")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
