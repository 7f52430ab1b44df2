package models

import (
	"encoding/json"
	"time"
)

// AuditAction identifies the kind of user action recorded
type AuditAction string

const (
	ActionClientCreated   AuditAction = "client_created"
	ActionClientUpdated   AuditAction = "client_updated"
	ActionClientDeleted   AuditAction = "client_deleted"
	ActionTaskCreated     AuditAction = "task_created"
	ActionTaskUpdated     AuditAction = "task_updated"
	ActionTaskMoved       AuditAction = "task_moved"
	ActionTaskDeleted     AuditAction = "task_deleted"
	ActionLeadCreated     AuditAction = "lead_created"
	ActionLeadUpdated     AuditAction = "lead_updated"
	ActionLeadMoved       AuditAction = "lead_moved"
	ActionLeadDeleted     AuditAction = "lead_deleted"
	ActionPipelineCreated AuditAction = "pipeline_created"
	ActionPipelineUpdated AuditAction = "pipeline_updated"
	ActionPipelineDeleted AuditAction = "pipeline_deleted"
	ActionProfileUpdated  AuditAction = "profile_updated"
	ActionUserInvited     AuditAction = "user_invited"
	ActionUserUpdated     AuditAction = "user_updated"
	ActionUserRemoved     AuditAction = "user_removed"
	ActionEntryReverted   AuditAction = "entry_reverted"
	ActionDocumentAdded   AuditAction = "document_added"
	ActionDocumentDeleted AuditAction = "document_deleted"
	ActionTicketCreated   AuditAction = "ticket_created"
	ActionTicketClosed    AuditAction = "ticket_closed"
)

// AuditSeverity classifies an entry for the activity feed
type AuditSeverity string

const (
	SeverityInfo     AuditSeverity = "info"
	SeverityWarning  AuditSeverity = "warning"
	SeverityCritical AuditSeverity = "critical"
)

// AuditLogEntry is one durable record of a user-attributable action. The
// tenant store row is the source of truth; the in-memory ring kept by the
// audit service is a bounded read cache over the newest 1000 entries.
type AuditLogEntry struct {
	ID            string        `json:"id" gorm:"type:varchar(64);primaryKey"`
	WorkspaceSlug string        `json:"workspace_slug" gorm:"type:varchar(64);not null;index"`
	Action        AuditAction   `json:"action" gorm:"type:varchar(32);not null"`
	TargetKind    string        `json:"target_kind" gorm:"type:varchar(32)"`
	TargetID      string        `json:"target_id" gorm:"type:varchar(64);index"`
	TargetName    string        `json:"target_name"`
	ActorID       string        `json:"actor_id" gorm:"type:varchar(64);index"`
	ActorName     string        `json:"actor_name"`
	ActorAvatar   string        `json:"actor_avatar"`
	Severity      AuditSeverity `json:"severity" gorm:"type:varchar(16);default:'info'"`
	Details       string        `json:"details,omitempty"`
	UndoData      string        `json:"undo_data,omitempty" gorm:"type:text"`
	Reverted      bool          `json:"reverted" gorm:"default:false"`
	CreatedAt     time.Time     `json:"created_at" gorm:"index"`
}

func (AuditLogEntry) TableName() string {
	return "audit_logs"
}

// HasUndo reports whether the entry carries a restorable snapshot.
func (e *AuditLogEntry) HasUndo() bool {
	return e.UndoData != "" && !e.Reverted
}

// DecodeUndo deserializes the undo snapshot into dest.
func (e *AuditLogEntry) DecodeUndo(dest interface{}) error {
	return json.Unmarshal([]byte(e.UndoData), dest)
}
