package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lucasmerida/storely-backend/pkg/enums"
	"github.com/lucasmerida/storely-backend/pkg/types"
)

// Order is a customer purchase. Once IsPaid flips true the row is owned by
// the settlement engine and further mark-paid calls are read-only echoes.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID         uuid.UUID           `gorm:"column:store_id;type:uuid;not null"`
	UserID          *uuid.UUID          `gorm:"column:user_id;type:uuid"`
	Currency        enums.Currency      `gorm:"column:currency;type:text;not null;default:'USD'"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaymentMethodID *uuid.UUID          `gorm:"column:payment_method_id;type:uuid"`
	IsPaid          bool                `gorm:"column:is_paid;not null;default:false"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	OrderStatus     enums.OrderStatus   `gorm:"column:order_status;type:order_status;not null;default:'pending'"`

	// CheckoutAttributes carries the raw classification-hint bag. Parse it
	// through Attributes; bad payloads read as no hints, never an error.
	CheckoutAttributes *string `gorm:"column:checkout_attributes"`

	// PaymentCost is the signed sum of gateway fee, tax on fee, and
	// platform fee computed at settlement.
	PaymentCost decimal.Decimal `gorm:"column:payment_cost;type:numeric(12,2);not null;default:0"`

	PaidAt    *time.Time      `gorm:"column:paid_at"`
	Items     []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Notes     []OrderNote     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Attributes decodes the checkout-attribute bag, nil when absent or garbled.
func (o *Order) Attributes() *types.CheckoutAttributes {
	if o.CheckoutAttributes == nil {
		return nil
	}
	return types.ParseCheckoutAttributes(*o.CheckoutAttributes)
}
