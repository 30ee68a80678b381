package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lucasmerida/storely-backend/pkg/enums"
)

// PaymentMethod is a store's fee schedule plus the flow tag deciding which
// money-movement path settlement takes.
type PaymentMethod struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID         `gorm:"column:store_id;type:uuid;not null"`
	Name      string            `gorm:"column:name;not null"`
	Flow      enums.PaymentFlow `gorm:"column:flow;type:payment_flow;not null;default:'cash'"`
	FeeRate   decimal.Decimal   `gorm:"column:fee_rate;type:numeric(8,4);not null;default:0"`
	FeeFixed  decimal.Decimal   `gorm:"column:fee_fixed;type:numeric(12,2);not null;default:0"`
	ClearDays int               `gorm:"column:clear_days;not null;default:0"`
	IsDefault bool              `gorm:"column:is_default;not null;default:false"`
	Enabled   bool              `gorm:"column:enabled;not null;default:true"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
