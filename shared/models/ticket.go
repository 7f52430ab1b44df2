package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// TicketStatus is the lifecycle state of a support ticket
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// TicketMessage is one message in a ticket's thread, stored as a JSON column
type TicketMessage struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketMessages is the JSON-column message thread
type TicketMessages []TicketMessage

func (m TicketMessages) Value() (driver.Value, error) {
	if m == nil {
		return jsonValue(TicketMessages{})
	}
	return jsonValue(m)
}
func (m *TicketMessages) Scan(src interface{}) error { return jsonScan(m, src) }

// Ticket is a support request raised by or on behalf of a client. Tickets
// persist to the tenant store like every other collection.
type Ticket struct {
	ID            string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	WorkspaceSlug string         `json:"workspace_slug" gorm:"type:varchar(64);not null;index"`
	Subject       string         `json:"subject" gorm:"not null"`
	Status        TicketStatus   `json:"status" gorm:"type:varchar(16);default:'open'"`
	Priority      TaskPriority   `json:"priority" gorm:"type:varchar(16);default:'medium'"`
	ClientID      string         `json:"client_id" gorm:"type:varchar(64);index"`
	ClientName    string         `json:"client_name"`
	AssigneeID    string         `json:"assignee_id" gorm:"type:varchar(64);index"`
	Messages      TicketMessages `json:"messages" gorm:"type:json"`
	Version       int64          `json:"version" gorm:"default:1"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// Conversation is a WhatsApp conversation thread persisted per workspace
type Conversation struct {
	ID            string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	WorkspaceSlug string         `json:"workspace_slug" gorm:"type:varchar(64);not null;index"`
	ContactName   string         `json:"contact_name"`
	ContactPhone  string         `json:"contact_phone" gorm:"type:varchar(32);index"`
	ClientID      string         `json:"client_id" gorm:"type:varchar(64);index"`
	Messages      TicketMessages `json:"messages" gorm:"type:json"`
	LastMessageAt *time.Time     `json:"last_message_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}
