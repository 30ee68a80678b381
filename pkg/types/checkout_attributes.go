package types

import (
	"encoding/json"
)

// CheckoutAttributes is the typed view of the opaque key/value bag a checkout
// flow (or an external gateway) attaches to an order. The raw bag lives in a
// text column; unparseable payloads decode to nil rather than an error.
type CheckoutAttributes struct {
	FiatRefill   *bool   `json:"fiatRefill,omitempty"`
	CreditRefill *bool   `json:"creditRefill,omitempty"`
	RsvpID       *string `json:"rsvpId,omitempty"`
}

// ParseCheckoutAttributes decodes raw and returns nil on any parse failure.
func ParseCheckoutAttributes(raw string) *CheckoutAttributes {
	if raw == "" {
		return nil
	}
	var attrs CheckoutAttributes
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return nil
	}
	return &attrs
}

// Encode renders the bag back to its stored text form.
func (a *CheckoutAttributes) Encode() (string, error) {
	if a == nil {
		return "", nil
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// IsFiatRefill reports whether the bag flags the order as a fiat refill.
func (a *CheckoutAttributes) IsFiatRefill() bool {
	return a != nil && a.FiatRefill != nil && *a.FiatRefill
}

// IsCreditRefill reports whether the bag flags the order as a credit refill.
func (a *CheckoutAttributes) IsCreditRefill() bool {
	return a != nil && a.CreditRefill != nil && *a.CreditRefill
}

// Bool is a convenience for building attribute literals.
func Bool(v bool) *bool { return &v }
