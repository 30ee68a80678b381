package enums

import "fmt"

// CustomerLedgerType maps to the customer_ledger_type enum in Postgres.
type CustomerLedgerType string

const (
	// CustomerLedgerTypeTopup increases a customer balance.
	CustomerLedgerTypeTopup CustomerLedgerType = "topup"
	// CustomerLedgerTypeHold sets funds aside without recognizing revenue.
	CustomerLedgerTypeHold CustomerLedgerType = "hold"
	// CustomerLedgerTypeSpend decreases a balance with immediate revenue
	// recognition.
	CustomerLedgerTypeSpend CustomerLedgerType = "spend"
)

var validCustomerLedgerTypes = []CustomerLedgerType{
	CustomerLedgerTypeTopup,
	CustomerLedgerTypeHold,
	CustomerLedgerTypeSpend,
}

// Debits reports whether entries of this type may not drive a balance negative.
func (t CustomerLedgerType) Debits() bool {
	return t == CustomerLedgerTypeHold || t == CustomerLedgerTypeSpend
}

// IsValid reports whether the value matches the canonical customer ledger enum.
func (t CustomerLedgerType) IsValid() bool {
	for _, candidate := range validCustomerLedgerTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseCustomerLedgerType converts raw input into CustomerLedgerType.
func ParseCustomerLedgerType(value string) (CustomerLedgerType, error) {
	for _, candidate := range validCustomerLedgerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer ledger type %q", value)
}
