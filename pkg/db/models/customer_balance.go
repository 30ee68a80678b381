package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerBalance is derived state keyed by (store, user). It is never
// written directly, only as the side effect of appending a ledger entry,
// and is always recomputable by replaying the customer ledger.
type CustomerBalance struct {
	StoreID      uuid.UUID       `gorm:"column:store_id;type:uuid;primaryKey"`
	UserID       uuid.UUID       `gorm:"column:user_id;type:uuid;primaryKey"`
	Fiat         decimal.Decimal `gorm:"column:fiat;type:numeric(14,2);not null;default:0"`
	CreditPoints decimal.Decimal `gorm:"column:credit_points;type:numeric(14,2);not null;default:0"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
