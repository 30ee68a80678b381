package enums

import "fmt"

// StoreLedgerType maps to the store_ledger_type enum in Postgres.
type StoreLedgerType string

const (
	// StoreLedgerTypeHoldByPlatform marks revenue collected through the
	// platform's payment processing; funds clear after the method's clear days.
	StoreLedgerTypeHoldByPlatform StoreLedgerType = "hold_by_platform"
	// StoreLedgerTypeStorePaymentProvider marks revenue collected by the
	// store's own provider; the platform never touches the money.
	StoreLedgerTypeStorePaymentProvider StoreLedgerType = "store_payment_provider"
	// StoreLedgerTypeCreditUsage marks revenue recognized when a customer
	// spends credit points.
	StoreLedgerTypeCreditUsage StoreLedgerType = "credit_usage"
	// StoreLedgerTypeCreditRecharge marks unearned revenue from a balance
	// refill order.
	StoreLedgerTypeCreditRecharge StoreLedgerType = "credit_recharge"
)

var validStoreLedgerTypes = []StoreLedgerType{
	StoreLedgerTypeHoldByPlatform,
	StoreLedgerTypeStorePaymentProvider,
	StoreLedgerTypeCreditUsage,
	StoreLedgerTypeCreditRecharge,
}

// IsValid reports whether the value matches the canonical store ledger enum.
func (t StoreLedgerType) IsValid() bool {
	for _, candidate := range validStoreLedgerTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseStoreLedgerType converts raw input into StoreLedgerType.
func ParseStoreLedgerType(value string) (StoreLedgerType, error) {
	for _, candidate := range validStoreLedgerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid store ledger type %q", value)
}
