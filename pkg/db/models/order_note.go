package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderNote is an append-only operator trail entry for an order.
type OrderNote struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	Note      string     `gorm:"column:note;not null"`
	CreatorID *uuid.UUID `gorm:"column:creator_id;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
