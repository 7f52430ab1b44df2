package models

import (
	"time"
)

// OutboxStatus is the delivery state of a parked workspace event
type OutboxStatus string

const (
	OutboxPending           OutboxStatus = "pending"
	OutboxResolved          OutboxStatus = "resolved"
	OutboxPermanentlyFailed OutboxStatus = "permanently_failed"
)

// OutboxEntry parks a workspace event whose downstream delivery failed so the
// relay can retry it with backoff. Rows are written by the relay consumer and
// resolved or abandoned by the retry loop.
type OutboxEntry struct {
	ID              string       `json:"id" gorm:"type:varchar(64);primaryKey"`
	WorkspaceSlug   string       `json:"workspace_slug" gorm:"type:varchar(64);not null;index"`
	OriginalEventID string       `json:"original_event_id" gorm:"type:varchar(64);not null"`
	EventType       string       `json:"event_type" gorm:"type:varchar(32);not null"`
	Payload         string       `json:"payload" gorm:"type:text;not null"`
	ErrorMessage    string       `json:"error_message" gorm:"not null"`
	RetryCount      int          `json:"retry_count" gorm:"default:0"`
	Status          OutboxStatus `json:"status" gorm:"type:varchar(24);default:'pending';index"`
	NextRetryAt     *time.Time   `json:"next_retry_at,omitempty" gorm:"index"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	ResolvedAt      *time.Time   `json:"resolved_at,omitempty"`
}

func (OutboxEntry) TableName() string {
	return "outbox_entries"
}

// WorkspaceEvent is the Kafka payload emitted for every tenant-store mutation
type WorkspaceEvent struct {
	ID            string      `json:"id"`
	WorkspaceSlug string      `json:"workspace_slug"`
	ActorID       string      `json:"actor_id"`
	EventType     string      `json:"event_type"`
	EntityKind    string      `json:"entity_kind"`
	EntityID      string      `json:"entity_id"`
	Payload       interface{} `json:"payload,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}
