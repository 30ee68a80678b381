package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/lucasmerida/storely-backend/pkg/enums"
)

// Notification is a store-scoped inbox row written by the notification worker.
type Notification struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID               `gorm:"column:store_id;type:uuid;not null"`
	UserID    *uuid.UUID              `gorm:"column:user_id;type:uuid"`
	Topic     enums.NotificationTopic `gorm:"column:topic;type:notification_topic;not null"`
	Title     string                  `gorm:"column:title;not null"`
	Body      string                  `gorm:"column:body"`
	Targets   pq.StringArray          `gorm:"column:targets;type:text[];default:ARRAY[]::text[]"`
	Data      json.RawMessage         `gorm:"column:data;type:jsonb"`
	ReadAt    *time.Time              `gorm:"column:read_at"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
}
