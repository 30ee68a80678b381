package fees

import (
	"github.com/shopspring/decimal"

	"github.com/lucasmerida/storely-backend/pkg/enums"
)

var (
	feeTaxRate      = decimal.NewFromFloat(0.05)
	platformFeeRate = decimal.NewFromFloat(0.01)
)

// Schedule is the fee configuration carried by a payment method.
type Schedule struct {
	FeeRate  decimal.Decimal
	FeeFixed decimal.Decimal
}

// Breakdown holds the signed fee components of a settlement. Costs are
// negative; a zero component means the charge does not apply.
type Breakdown struct {
	GatewayFee  decimal.Decimal
	FeeTax      decimal.Decimal
	PlatformFee decimal.Decimal
}

// LedgerFee returns the gateway fee with its tax folded in, which is how
// the store ledger stores the fee column.
func (b Breakdown) LedgerFee() decimal.Decimal {
	return b.GatewayFee.Add(b.FeeTax)
}

// Total is the signed sum of every fee component, recorded on the order
// as its payment cost.
func (b Breakdown) Total() decimal.Decimal {
	return b.GatewayFee.Add(b.FeeTax).Add(b.PlatformFee)
}

// UsesPlatformProcessing reports whether the platform's own payment
// processing handles this store's money. Free-tier stores always ride the
// platform rails; Pro-tier stores do only when they configured an external
// gateway credential through the platform.
func UsesPlatformProcessing(tier enums.StoreTier, hasGatewayCredential bool) bool {
	if tier == enums.StoreTierFree {
		return true
	}
	return hasGatewayCredential
}

// Calculate derives the fee breakdown for an order total. Pure, no errors.
//
// The gateway fee is -(total*feeRate + feeFixed) when the platform processes
// the payment, zero otherwise. The tax on that fee is a flat 5% of its
// magnitude. Free-tier stores additionally pay 1% of the total as a
// platform fee.
func Calculate(orderTotal decimal.Decimal, schedule Schedule, tier enums.StoreTier, usesPlatformProcessing bool) Breakdown {
	breakdown := Breakdown{
		GatewayFee:  decimal.Zero,
		FeeTax:      decimal.Zero,
		PlatformFee: decimal.Zero,
	}

	if usesPlatformProcessing {
		gateway := orderTotal.Mul(schedule.FeeRate).Add(schedule.FeeFixed)
		breakdown.GatewayFee = gateway.Neg()
		breakdown.FeeTax = gateway.Abs().Mul(feeTaxRate).Neg()
	}

	if tier == enums.StoreTierFree {
		breakdown.PlatformFee = orderTotal.Mul(platformFeeRate).Neg()
	}

	return breakdown
}
