package enums

import "fmt"

// BalanceKind selects which per-customer balance stream a ledger entry mutates.
type BalanceKind string

const (
	BalanceKindFiat         BalanceKind = "fiat"
	BalanceKindCreditPoints BalanceKind = "credit_points"
)

var validBalanceKinds = []BalanceKind{
	BalanceKindFiat,
	BalanceKindCreditPoints,
}

// IsValid reports whether the value matches the canonical balance kind enum.
func (k BalanceKind) IsValid() bool {
	for _, candidate := range validBalanceKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseBalanceKind converts raw input into BalanceKind.
func ParseBalanceKind(value string) (BalanceKind, error) {
	for _, candidate := range validBalanceKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid balance kind %q", value)
}
