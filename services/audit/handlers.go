package main

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/contabilflow/backend/shared/audit"
	"github.com/contabilflow/backend/shared/middleware"
	"github.com/contabilflow/backend/shared/models"
	"github.com/contabilflow/backend/shared/utils"
)

// handleGetAuditLog serves the activity feed: the newest entries, capped at
// the ring size
func handleGetAuditLog(recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, _, slug, _ := middleware.GetUserFromContext(c)

		entries, err := recorder.Recent(slug)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch audit log")
			return
		}

		utils.OKResponse(c, "Audit log retrieved successfully", entries)
	}
}

// restoreSnapshot writes an undo snapshot back to the tenant store. The
// snapshot is the full row captured at the time of the destructive action;
// Unscoped bypasses the soft-delete scope so deleted rows come back.
func restoreSnapshot(tx *gorm.DB, entry *models.AuditLogEntry) error {
	switch entry.TargetKind {
	case "client":
		var client models.Client
		if err := entry.DecodeUndo(&client); err != nil {
			return utils.WrapError(utils.KindMalformed, "undo snapshot is not a client", err)
		}
		client.DeletedAt = gorm.DeletedAt{}
		client.Version++
		return tx.Unscoped().Save(&client).Error
	case "task":
		var task models.Task
		if err := entry.DecodeUndo(&task); err != nil {
			return utils.WrapError(utils.KindMalformed, "undo snapshot is not a task", err)
		}
		task.DeletedAt = gorm.DeletedAt{}
		task.Version++
		return tx.Unscoped().Save(&task).Error
	case "lead":
		var lead models.Lead
		if err := entry.DecodeUndo(&lead); err != nil {
			return utils.WrapError(utils.KindMalformed, "undo snapshot is not a lead", err)
		}
		lead.DeletedAt = gorm.DeletedAt{}
		lead.Version++
		return tx.Unscoped().Save(&lead).Error
	case "pipeline":
		var pipeline models.Pipeline
		if err := entry.DecodeUndo(&pipeline); err != nil {
			return utils.WrapError(utils.KindMalformed, "undo snapshot is not a pipeline", err)
		}
		pipeline.DeletedAt = gorm.DeletedAt{}
		pipeline.Version++
		return tx.Unscoped().Save(&pipeline).Error
	case "document":
		var doc models.Document
		if err := entry.DecodeUndo(&doc); err != nil {
			return utils.WrapError(utils.KindMalformed, "undo snapshot is not a document", err)
		}
		doc.DeletedAt = gorm.DeletedAt{}
		return tx.Unscoped().Save(&doc).Error
	}
	return utils.ValidationError("entries of kind " + entry.TargetKind + " cannot be undone")
}

// handleUndoEntry restores the snapshot carried by an audit entry and flips
// its reverted flag
func handleUndoEntry(db *gorm.DB, recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var entry models.AuditLogEntry
		if err := db.Where("id = ? AND workspace_slug = ?", c.Param("id"), actor.WorkspaceSlug).First(&entry).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "Audit entry not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch audit entry")
			}
			return
		}

		if entry.Reverted {
			utils.DomainErrorResponse(c, utils.ConflictError("entry was already reverted"))
			return
		}
		if entry.UndoData == "" {
			utils.DomainErrorResponse(c, utils.ValidationError("entry carries no undo snapshot"))
			return
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := restoreSnapshot(tx, &entry); err != nil {
				return err
			}
			return tx.Model(&models.AuditLogEntry{}).
				Where("id = ?", entry.ID).
				Update("reverted", true).Error
		})
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		if err := recorder.MarkReverted(actor.WorkspaceSlug, entry.ID); err != nil {
			logrus.Errorf("Failed to mark entry reverted in feed cache: %v", err)
		}
		if _, err := recorder.Record(actor, models.ActionEntryReverted, entry.TargetKind, entry.TargetID, entry.TargetName,
			models.SeverityWarning, "undo of "+string(entry.Action), nil); err != nil {
			logrus.Errorf("Failed to record audit entry: %v", err)
		}

		utils.OKResponse(c, "Entry reverted successfully", nil)
	}
}
