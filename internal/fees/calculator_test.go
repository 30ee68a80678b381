package fees

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lucasmerida/storely-backend/pkg/enums"
)

func TestCalculateFreeTierCashSale(t *testing.T) {
	total := decimal.NewFromInt(500)
	schedule := Schedule{
		FeeRate:  decimal.NewFromFloat(0.03),
		FeeFixed: decimal.NewFromInt(10),
	}

	got := Calculate(total, schedule, enums.StoreTierFree, true)

	if !got.GatewayFee.Equal(decimal.NewFromInt(-25)) {
		t.Fatalf("gateway fee = %s, want -25", got.GatewayFee)
	}
	if !got.FeeTax.Equal(decimal.NewFromFloat(-1.25)) {
		t.Fatalf("fee tax = %s, want -1.25", got.FeeTax)
	}
	if !got.PlatformFee.Equal(decimal.NewFromInt(-5)) {
		t.Fatalf("platform fee = %s, want -5", got.PlatformFee)
	}
	if !got.LedgerFee().Equal(decimal.NewFromFloat(-26.25)) {
		t.Fatalf("ledger fee = %s, want -26.25", got.LedgerFee())
	}
	if !got.Total().Equal(decimal.NewFromFloat(-31.25)) {
		t.Fatalf("total = %s, want -31.25", got.Total())
	}
}

func TestCalculateProTierOwnProvider(t *testing.T) {
	total := decimal.NewFromInt(1000)
	schedule := Schedule{
		FeeRate:  decimal.NewFromFloat(0.03),
		FeeFixed: decimal.NewFromInt(10),
	}

	got := Calculate(total, schedule, enums.StoreTierPro, false)

	if !got.GatewayFee.IsZero() {
		t.Fatalf("gateway fee = %s, want 0", got.GatewayFee)
	}
	if !got.FeeTax.IsZero() {
		t.Fatalf("fee tax = %s, want 0", got.FeeTax)
	}
	if !got.PlatformFee.IsZero() {
		t.Fatalf("platform fee = %s, want 0", got.PlatformFee)
	}
	if !got.Total().IsZero() {
		t.Fatalf("total = %s, want 0", got.Total())
	}
}

func TestCalculateProTierWithGatewayCredential(t *testing.T) {
	total := decimal.NewFromInt(200)
	schedule := Schedule{
		FeeRate:  decimal.NewFromFloat(0.02),
		FeeFixed: decimal.Zero,
	}

	got := Calculate(total, schedule, enums.StoreTierPro, true)

	if !got.GatewayFee.Equal(decimal.NewFromInt(-4)) {
		t.Fatalf("gateway fee = %s, want -4", got.GatewayFee)
	}
	if !got.FeeTax.Equal(decimal.NewFromFloat(-0.2)) {
		t.Fatalf("fee tax = %s, want -0.2", got.FeeTax)
	}
	if !got.PlatformFee.IsZero() {
		t.Fatalf("pro tier should not pay platform fee, got %s", got.PlatformFee)
	}
}

func TestUsesPlatformProcessing(t *testing.T) {
	cases := []struct {
		name          string
		tier          enums.StoreTier
		hasCredential bool
		want          bool
	}{
		{"free without credential", enums.StoreTierFree, false, true},
		{"free with credential", enums.StoreTierFree, true, true},
		{"pro without credential", enums.StoreTierPro, false, false},
		{"pro with credential", enums.StoreTierPro, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := UsesPlatformProcessing(tc.tier, tc.hasCredential); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
