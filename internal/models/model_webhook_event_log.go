package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookEventLogStatus string

const (
	WebhookEventLogStatusHandled      WebhookEventLogStatus = "handled"
	WebhookEventLogStatusHandleFailed WebhookEventLogStatus = "handle_failed"
)

// WebhookEventLog is an audit row per processor webhook delivery. The unique
// index on EventID is the dedup key that makes event handling idempotent
// under at-least-once delivery.
type WebhookEventLog struct {
	ID        string                `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventID   string                `gorm:"column:event_id;type:varchar(128);not null;uniqueIndex" json:"event_id"`
	EventType string                `gorm:"column:event_type;type:varchar(64);not null" json:"event_type"`
	TraceID   string                `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	Data      datatypes.JSON        `gorm:"column:data;type:jsonb" json:"data"`
	Status    WebhookEventLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func (WebhookEventLog) TableName() string { return "webhook_event_log" }
