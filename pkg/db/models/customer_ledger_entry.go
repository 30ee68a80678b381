package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lucasmerida/storely-backend/pkg/enums"
)

// CustomerLedgerEntry is one immutable row of a per-customer balance stream.
// Amount is signed: topups positive, holds and spends negative. Balance is
// the stream's running total after this entry.
type CustomerLedgerEntry struct {
	ID          uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID     uuid.UUID                `gorm:"column:store_id;type:uuid;not null"`
	UserID      uuid.UUID                `gorm:"column:user_id;type:uuid;not null"`
	Kind        enums.BalanceKind        `gorm:"column:kind;type:balance_kind;not null"`
	Amount      decimal.Decimal          `gorm:"column:amount;type:numeric(14,2);not null"`
	Balance     decimal.Decimal          `gorm:"column:balance;type:numeric(14,2);not null"`
	Type        enums.CustomerLedgerType `gorm:"column:type;type:customer_ledger_type;not null"`
	ReferenceID *uuid.UUID               `gorm:"column:reference_id;type:uuid"`
	Note        string                   `gorm:"column:note"`
	CreatorID   *uuid.UUID               `gorm:"column:creator_id;type:uuid"`
	CreatedAt   time.Time                `gorm:"column:created_at;autoCreateTime"`
}
