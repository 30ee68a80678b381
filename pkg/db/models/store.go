package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/lucasmerida/storely-backend/pkg/enums"
)

// Store represents the canonical tenant model.
type Store struct {
	ID       uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name     string          `gorm:"column:name;not null"`
	Tier     enums.StoreTier `gorm:"column:tier;type:store_tier;not null;default:'free'"`
	Currency enums.Currency  `gorm:"column:currency;type:text;not null;default:'USD'"`
	OwnerID  uuid.UUID       `gorm:"column:owner;type:uuid;not null"`

	// GatewayKey holds the store's external processor credential. Pro-tier
	// stores without one settle through their own provider, fee-free.
	GatewayKey *string `gorm:"column:gateway_key"`

	CreditExchangeRate decimal.Decimal `gorm:"column:credit_exchange_rate;type:numeric(12,4);not null;default:1"`
	RequirePrepaid     bool            `gorm:"column:require_prepaid;not null;default:false"`
	MinPrepaidCredit   decimal.Decimal `gorm:"column:min_prepaid_credit;type:numeric(12,2);not null;default:0"`
	NoNeedToConfirm    bool            `gorm:"column:no_need_to_confirm;not null;default:false"`
	EnabledFlows       pq.StringArray  `gorm:"column:enabled_flows;type:text[];default:ARRAY[]::text[]"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// FlowEnabled reports whether the store accepts the given payment flow.
// An empty list means every flow is allowed.
func (s *Store) FlowEnabled(flow enums.PaymentFlow) bool {
	if len(s.EnabledFlows) == 0 {
		return true
	}
	for _, candidate := range s.EnabledFlows {
		if candidate == string(flow) {
			return true
		}
	}
	return false
}

// HasGatewayCredential reports whether an external processor key is configured.
func (s *Store) HasGatewayCredential() bool {
	return s.GatewayKey != nil && *s.GatewayKey != ""
}
