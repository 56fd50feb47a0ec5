package types

import (
	"fmt"
	"strings"
)

// FormatUnits renders a fixed-point token amount as a decimal string,
// trimming trailing zeros from the fractional part. decimals is the
// number of base-10 fractional digits the token uses.
func FormatUnits(amount uint64, decimals uint8) string {
	if decimals == 0 {
		return fmt.Sprintf("%d", amount)
	}
	div := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		div *= 10
	}
	whole := amount / div
	frac := amount % div
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	fracStr := fmt.Sprintf("%0*d", decimals, frac)
	fracStr = strings.TrimRight(fracStr, "0")
	return fmt.Sprintf("%d.%s", whole, fracStr)
}

// ParseUnits converts a decimal string into a fixed-point amount with
// the given number of fractional digits. Excess fractional digits are
// rejected rather than truncated.
func ParseUnits(s string, decimals uint8) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	parts := strings.SplitN(s, ".", 2)
	var whole, frac uint64
	if parts[0] != "" {
		if _, err := fmt.Sscanf(parts[0], "%d", &whole); err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
	}
	div := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		div *= 10
	}
	if len(parts) == 2 {
		fracStr := parts[1]
		if len(fracStr) > int(decimals) {
			return 0, fmt.Errorf("amount %q has more than %d fractional digits", s, decimals)
		}
		fracStr += strings.Repeat("0", int(decimals)-len(fracStr))
		if fracStr != "" {
			if _, err := fmt.Sscanf(fracStr, "%d", &frac); err != nil {
				return 0, fmt.Errorf("invalid amount %q", s)
			}
		}
	}
	return whole*div + frac, nil
}
