package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lucasmerida/storely-backend/pkg/enums"
)

// Reservation is a booking. AlreadyPaid flips false to true exactly once and
// is the sole settlement guard for reservation-linked orders.
type Reservation struct {
	ID               uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID          uuid.UUID               `gorm:"column:store_id;type:uuid;not null"`
	CustomerID       *uuid.UUID              `gorm:"column:customer_id;type:uuid"`
	OrderID          *uuid.UUID              `gorm:"column:order_id;type:uuid"`
	Status           enums.ReservationStatus `gorm:"column:status;type:reservation_status;not null;default:'pending'"`
	AlreadyPaid      bool                    `gorm:"column:already_paid;not null;default:false"`
	PaidAt           *time.Time              `gorm:"column:paid_at"`
	ConfirmedByStore bool                    `gorm:"column:confirmed_by_store;not null;default:false"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
