package audit

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/contabilflow/backend/shared/models"
	"github.com/contabilflow/backend/shared/utils"
)

// Recorder writes audit entries durable-first: the tenant store row is the
// source of truth, the per-workspace ring is a read cache for the activity
// feed.
type Recorder struct {
	db *gorm.DB

	mu    sync.Mutex
	rings map[string]*Ring
}

// NewRecorder creates a recorder backed by the tenant store.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{
		db:    db,
		rings: make(map[string]*Ring),
	}
}

// ring returns the feed cache for a workspace, creating it on first use.
func (r *Recorder) ring(slug string) *Ring {
	r.mu.Lock()
	defer r.mu.Unlock()

	ring, ok := r.rings[slug]
	if !ok {
		ring = NewRing(RingCapacity)
		r.rings[slug] = ring
	}
	return ring
}

// newEntry builds the durable row for a user action, serializing the undo
// snapshot when given.
func newEntry(actor *models.UserInfo, action models.AuditAction, targetKind, targetID, targetName string, severity models.AuditSeverity, details string, undoSnapshot interface{}) (*models.AuditLogEntry, error) {
	entry := models.AuditLogEntry{
		ID:            utils.NewAuditID(),
		WorkspaceSlug: actor.WorkspaceSlug,
		Action:        action,
		TargetKind:    targetKind,
		TargetID:      targetID,
		TargetName:    targetName,
		ActorID:       actor.UserID,
		ActorName:     actor.Name,
		Severity:      severity,
		Details:       details,
		CreatedAt:     time.Now().UTC(),
	}
	if severity == "" {
		entry.Severity = models.SeverityInfo
	}

	if undoSnapshot != nil {
		data, err := json.Marshal(undoSnapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize undo snapshot: %w", err)
		}
		entry.UndoData = string(data)
	}

	return &entry, nil
}

// Record appends an audit entry for a user action. A nil actor makes this a
// silent no-op. The undo snapshot, when given, is serialized into the entry.
func (r *Recorder) Record(actor *models.UserInfo, action models.AuditAction, targetKind, targetID, targetName string, severity models.AuditSeverity, details string, undoSnapshot interface{}) (*models.AuditLogEntry, error) {
	if actor == nil {
		return nil, nil
	}

	entry, err := newEntry(actor, action, targetKind, targetID, targetName, severity, details, undoSnapshot)
	if err != nil {
		return nil, err
	}

	if r.db != nil {
		if err := r.db.Create(entry).Error; err != nil {
			return nil, fmt.Errorf("failed to persist audit entry: %w", err)
		}
	}

	r.ring(actor.WorkspaceSlug).Prepend(*entry)

	logrus.WithFields(logrus.Fields{
		"workspace": actor.WorkspaceSlug,
		"action":    action,
		"target":    targetID,
		"actor":     actor.UserID,
	}).Debug("audit entry recorded")

	return entry, nil
}

// RecordTx is Record writing through the caller's transaction, so the entry
// commits and rolls back together with the mutation it describes. The feed
// cache is not touched here; readers pick the entry up from the store.
func (r *Recorder) RecordTx(tx *gorm.DB, actor *models.UserInfo, action models.AuditAction, targetKind, targetID, targetName string, severity models.AuditSeverity, details string, undoSnapshot interface{}) (*models.AuditLogEntry, error) {
	if actor == nil {
		return nil, nil
	}

	entry, err := newEntry(actor, action, targetKind, targetID, targetName, severity, details, undoSnapshot)
	if err != nil {
		return nil, err
	}

	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to persist audit entry: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"workspace": actor.WorkspaceSlug,
		"action":    action,
		"target":    targetID,
		"actor":     actor.UserID,
	}).Debug("audit entry recorded")

	return entry, nil
}

// Recent returns the newest entries for a workspace. Entries are reloaded
// from the tenant store on every read, so mutations recorded by other
// services appear in the feed; the ring answers only when the store is
// unreachable or the recorder has no store at all.
func (r *Recorder) Recent(slug string) ([]models.AuditLogEntry, error) {
	ring := r.ring(slug)
	if r.db == nil {
		return ring.Snapshot(), nil
	}

	var entries []models.AuditLogEntry
	err := r.db.Where("workspace_slug = ?", slug).
		Order("created_at DESC").
		Limit(RingCapacity).
		Find(&entries).Error
	if err != nil {
		if ring.Len() > 0 {
			logrus.WithError(err).WithField("workspace", slug).Warn("serving cached audit feed, store unavailable")
			return ring.Snapshot(), nil
		}
		return nil, fmt.Errorf("failed to load audit entries: %w", err)
	}

	ring.Replace(entries)
	return ring.Snapshot(), nil
}

// MarkReverted flips the reverted flag durably and in the feed cache.
func (r *Recorder) MarkReverted(slug, entryID string) error {
	if r.db != nil {
		result := r.db.Model(&models.AuditLogEntry{}).
			Where("id = ? AND workspace_slug = ?", entryID, slug).
			Update("reverted", true)
		if result.Error != nil {
			return fmt.Errorf("failed to mark entry reverted: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return utils.NotFoundError("audit entry not found")
		}
	}

	r.ring(slug).MarkReverted(entryID)
	return nil
}
