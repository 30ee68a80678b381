package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lucasmerida/storely-backend/pkg/enums"
)

// StoreLedgerEntry is one immutable row of the store revenue ledger.
// Balance is the running total after this entry:
// balance[n] = balance[n-1] + amount[n] + fee[n] + platform_fee[n].
// Fee stores the gateway fee with its tax already folded in.
type StoreLedgerEntry struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID     uuid.UUID             `gorm:"column:store_id;type:uuid;not null"`
	OrderID     *uuid.UUID            `gorm:"column:order_id;type:uuid"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Fee         decimal.Decimal       `gorm:"column:fee;type:numeric(12,2);not null;default:0"`
	PlatformFee decimal.Decimal       `gorm:"column:platform_fee;type:numeric(12,2);not null;default:0"`
	Currency    enums.Currency        `gorm:"column:currency;type:text;not null;default:'USD'"`
	Type        enums.StoreLedgerType `gorm:"column:type;type:store_ledger_type;not null"`
	Balance     decimal.Decimal       `gorm:"column:balance;type:numeric(14,2);not null"`

	// AvailableAt is when the funds become payable out to the store.
	AvailableAt time.Time `gorm:"column:available_at;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
