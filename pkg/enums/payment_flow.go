package enums

import "fmt"

// PaymentFlow tags how money moves for a payment method.
type PaymentFlow string

const (
	// PaymentFlowCash settles at the counter; no customer balance is touched.
	PaymentFlowCash PaymentFlow = "cash"
	// PaymentFlowCreditPoints spends the customer's credit-point balance.
	PaymentFlowCreditPoints PaymentFlow = "credit_points"
	// PaymentFlowAccountBalance spends the customer's fiat balance.
	PaymentFlowAccountBalance PaymentFlow = "account_balance"
	// PaymentFlowExternalGateway clears through an external processor.
	PaymentFlowExternalGateway PaymentFlow = "external_gateway"
)

var validPaymentFlows = []PaymentFlow{
	PaymentFlowCash,
	PaymentFlowCreditPoints,
	PaymentFlowAccountBalance,
	PaymentFlowExternalGateway,
}

// IsValid reports whether the value matches the canonical payment flow enum.
func (f PaymentFlow) IsValid() bool {
	for _, candidate := range validPaymentFlows {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParsePaymentFlow converts raw input into PaymentFlow.
func ParsePaymentFlow(value string) (PaymentFlow, error) {
	for _, candidate := range validPaymentFlows {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment flow %q", value)
}
