package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lucasmerida/storely-backend/pkg/enums"
)

// OrderPaidEvent is emitted inside the settlement transaction when the
// paid flag flips.
type OrderPaidEvent struct {
	OrderID  uuid.UUID       `json:"orderId"`
	StoreID  uuid.UUID       `json:"storeId"`
	UserID   *uuid.UUID      `json:"userId,omitempty"`
	Total    decimal.Decimal `json:"total"`
	Currency enums.Currency  `json:"currency"`
	PaidAt   time.Time       `json:"paidAt"`
}

// OrderSettledEvent is emitted after a payment confirmation fully settles.
type OrderSettledEvent struct {
	OrderID        uuid.UUID         `json:"orderId"`
	StoreID        uuid.UUID         `json:"storeId"`
	UserID         *uuid.UUID        `json:"userId,omitempty"`
	Flow           enums.PaymentFlow `json:"flow"`
	Total          decimal.Decimal   `json:"total"`
	PaymentCost    decimal.Decimal   `json:"paymentCost"`
	Currency       enums.Currency    `json:"currency"`
	SettledAt      time.Time         `json:"settledAt"`
	IsFiatRefill   bool              `json:"isFiatRefill"`
	IsCreditRefill bool              `json:"isCreditRefill"`
	IsRsvp         bool              `json:"isRsvp"`
}

// BalanceToppedUpEvent signals a fiat account-balance refill was credited.
type BalanceToppedUpEvent struct {
	StoreID    uuid.UUID       `json:"storeId"`
	UserID     uuid.UUID       `json:"userId"`
	OrderID    uuid.UUID       `json:"orderId"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"newBalance"`
	Currency   enums.Currency  `json:"currency"`
}

// CreditToppedUpEvent signals credit points were purchased and credited.
type CreditToppedUpEvent struct {
	StoreID    uuid.UUID       `json:"storeId"`
	UserID     uuid.UUID       `json:"userId"`
	OrderID    uuid.UUID       `json:"orderId"`
	FiatPaid   decimal.Decimal `json:"fiatPaid"`
	Points     decimal.Decimal `json:"points"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

// ReservationPaymentHeldEvent reports a reservation deposit was placed on hold.
type ReservationPaymentHeldEvent struct {
	ReservationID uuid.UUID       `json:"reservationId"`
	OrderID       uuid.UUID       `json:"orderId"`
	StoreID       uuid.UUID       `json:"storeId"`
	UserID        *uuid.UUID      `json:"userId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	HeldAt        time.Time       `json:"heldAt"`
}

// ReservationPrepaidEvent reports a reservation settled with prepaid credit.
type ReservationPrepaidEvent struct {
	ReservationID uuid.UUID               `json:"reservationId"`
	OrderID       uuid.UUID               `json:"orderId"`
	StoreID       uuid.UUID               `json:"storeId"`
	UserID        uuid.UUID               `json:"userId"`
	Points        decimal.Decimal         `json:"points"`
	Status        enums.ReservationStatus `json:"status"`
}

// ReservationStatusChangedEvent carries reservation lifecycle transitions.
type ReservationStatusChangedEvent struct {
	ReservationID uuid.UUID               `json:"reservationId"`
	StoreID       uuid.UUID               `json:"storeId"`
	From          enums.ReservationStatus `json:"from"`
	To            enums.ReservationStatus `json:"to"`
	ChangedAt     time.Time               `json:"changedAt"`
}

// PaymentReceivedEvent tells the notification worker a store got paid.
type PaymentReceivedEvent struct {
	OrderID  uuid.UUID         `json:"orderId"`
	StoreID  uuid.UUID         `json:"storeId"`
	Amount   decimal.Decimal   `json:"amount"`
	Currency enums.Currency    `json:"currency"`
	Flow     enums.PaymentFlow `json:"flow"`
}
