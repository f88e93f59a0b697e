package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// Amounts travel through the system as decimal strings and are stored as
// such. Parsing into big.Rat/big.Float happens only here: big.Rat for exact
// validation, big.Float for display formatting. No float64 anywhere.

// ValidateAmount checks that s is a non-empty, positive decimal string.
func ValidateAmount(s string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return fmt.Errorf("amount is empty")
	}
	r, ok := new(big.Rat).SetString(trimmed)
	if !ok {
		return fmt.Errorf("amount %q is not a decimal number", s)
	}
	if strings.ContainsAny(trimmed, "eE/") {
		// big.Rat accepts exponents and fractions; the wire format does not.
		return fmt.Errorf("amount %q is not a plain decimal number", s)
	}
	if r.Sign() <= 0 {
		return fmt.Errorf("amount %q must be positive", s)
	}
	return nil
}

// FormatAmount renders a decimal string for display with at most maxDecimals
// fractional digits, trimming trailing zeros. Invalid input is returned
// unchanged so a broken upstream value stays visible rather than turning
// into "0".
func FormatAmount(s string, maxDecimals int) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "0"
	}
	f, ok := new(big.Float).SetPrec(128).SetString(trimmed)
	if !ok {
		return s
	}
	formatted := f.Text('f', maxDecimals)
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimRight(formatted, ".")
	}
	if formatted == "" || formatted == "-" {
		return "0"
	}
	return formatted
}

// OrZero normalizes an absent amount to the canonical "0".
func OrZero(s string) string {
	if strings.TrimSpace(s) == "" {
		return "0"
	}
	return s
}
