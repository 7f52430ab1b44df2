package main

import (
	"time"

	"gorm.io/gorm"

	"github.com/contabilflow/backend/shared/audit"
	"github.com/contabilflow/backend/shared/models"
	"github.com/contabilflow/backend/shared/utils"
)

// EventSink receives workspace mutation events for downstream delivery.
type EventSink interface {
	Publish(event models.WorkspaceEvent) error
}

// Commands executes validated multi-entity mutations against the tenant
// store. Every command validates in one pass inside a transaction before any
// row is touched, writes its audit entry through the same transaction, and
// emits a workspace event after commit.
type Commands struct {
	db       *gorm.DB
	recorder *audit.Recorder
	events   EventSink
}

// NewCommands creates the command executor.
func NewCommands(db *gorm.DB, recorder *audit.Recorder, events EventSink) *Commands {
	return &Commands{db: db, recorder: recorder, events: events}
}

// ValidateStatus checks that a status value references a column of the
// pipeline.
func ValidateStatus(pipeline *models.Pipeline, status string) error {
	if status == "" {
		return utils.ValidationError("status is required")
	}
	if !pipeline.Columns.ContainsColumn(status) {
		return utils.ValidationError("status does not reference a column of pipeline " + pipeline.ID)
	}
	return nil
}

// ValidateColumnDeletion checks that the column exists and holds no tasks.
// Rejection leaves all state untouched.
func ValidateColumnDeletion(pipeline *models.Pipeline, columnID string, occupants int64) error {
	if !pipeline.Columns.ContainsColumn(columnID) {
		return utils.NotFoundError("column not found in pipeline")
	}
	if occupants > 0 {
		return utils.ConflictError("column still holds items and cannot be deleted")
	}
	return nil
}

// emit publishes a workspace event; delivery failures are left to the outbox
// relay and never fail the command.
func (cmd *Commands) emit(actor *models.UserInfo, eventType, entityKind, entityID string, payload interface{}) {
	if cmd.events == nil {
		return
	}
	cmd.events.Publish(models.WorkspaceEvent{
		ID:            utils.NewID("ev"),
		WorkspaceSlug: actor.WorkspaceSlug,
		ActorID:       actor.UserID,
		EventType:     eventType,
		EntityKind:    entityKind,
		EntityID:      entityID,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
	})
}

// MoveTask applies a validated status transition to a task. The target
// status must reference a column of the owning pipeline; a non-zero expected
// version must match the stored row.
func (cmd *Commands) MoveTask(actor *models.UserInfo, taskID, newStatus string, expectedVersion int64) (*models.Task, error) {
	var task models.Task

	err := cmd.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND workspace_slug = ?", taskID, actor.WorkspaceSlug).First(&task).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.NotFoundError("task not found")
			}
			return err
		}

		var pipeline models.Pipeline
		if err := tx.Where("id = ? AND workspace_slug = ?", task.PipelineID, actor.WorkspaceSlug).First(&pipeline).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.ValidationError("task references an unknown pipeline")
			}
			return err
		}

		if err := ValidateStatus(&pipeline, newStatus); err != nil {
			return err
		}

		if expectedVersion != 0 && expectedVersion != task.Version {
			return utils.ConflictError("task was modified by another session")
		}

		previous := task
		task.Status = newStatus
		task.Version++

		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		_, err := cmd.recorder.RecordTx(tx, actor, models.ActionTaskMoved, "task", task.ID, task.Title,
			models.SeverityInfo, "moved to "+newStatus, previous)
		return err
	})
	if err != nil {
		return nil, err
	}

	cmd.emit(actor, "task_moved", "task", task.ID, task)
	return &task, nil
}

// DeletePipelineColumn removes one column from a pipeline. The command is
// validated in a single pass inside the transaction, so two concurrent
// deletions cannot both pass the occupancy check.
func (cmd *Commands) DeletePipelineColumn(actor *models.UserInfo, pipelineID, columnID string) (*models.Pipeline, error) {
	var pipeline models.Pipeline

	err := cmd.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND workspace_slug = ?", pipelineID, actor.WorkspaceSlug).First(&pipeline).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.NotFoundError("pipeline not found")
			}
			return err
		}

		var occupants int64
		if pipeline.Kind == models.PipelineKindLeads {
			if err := tx.Model(&models.Lead{}).
				Where("workspace_slug = ? AND pipeline_id = ? AND status = ?", actor.WorkspaceSlug, pipelineID, columnID).
				Count(&occupants).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&models.Task{}).
				Where("workspace_slug = ? AND pipeline_id = ? AND status = ?", actor.WorkspaceSlug, pipelineID, columnID).
				Count(&occupants).Error; err != nil {
				return err
			}
		}

		if err := ValidateColumnDeletion(&pipeline, columnID, occupants); err != nil {
			return err
		}

		previous := pipeline
		columns := make(models.PipelineColumns, 0, len(pipeline.Columns)-1)
		for _, col := range pipeline.Columns {
			if col.ID != columnID {
				columns = append(columns, col)
			}
		}
		pipeline.Columns = columns
		pipeline.Version++

		if err := tx.Save(&pipeline).Error; err != nil {
			return err
		}

		_, err := cmd.recorder.RecordTx(tx, actor, models.ActionPipelineUpdated, "pipeline", pipeline.ID, pipeline.Name,
			models.SeverityWarning, "column "+columnID+" deleted", previous)
		return err
	})
	if err != nil {
		return nil, err
	}

	cmd.emit(actor, "pipeline_updated", "pipeline", pipeline.ID, pipeline)
	return &pipeline, nil
}

// UpsertClient saves a client keyed by id, bumping its version and refreshing
// the denormalized client name on referencing tasks and leads.
func (cmd *Commands) UpsertClient(actor *models.UserInfo, client *models.Client) error {
	created := false

	err := cmd.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Client
		err := tx.Where("id = ? AND workspace_slug = ?", client.ID, actor.WorkspaceSlug).First(&existing).Error
		switch err {
		case nil:
			client.Version = existing.Version + 1
			client.CreatedAt = existing.CreatedAt
		case gorm.ErrRecordNotFound:
			created = true
			client.Version = 1
		default:
			return err
		}

		client.WorkspaceSlug = actor.WorkspaceSlug
		if err := tx.Save(client).Error; err != nil {
			return err
		}

		// Keep denormalized names in step with the client record
		if !created {
			if err := tx.Model(&models.Task{}).
				Where("workspace_slug = ? AND client_id = ?", actor.WorkspaceSlug, client.ID).
				Update("client_name", client.Name).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Lead{}).
				Where("workspace_slug = ? AND client_id = ?", actor.WorkspaceSlug, client.ID).
				Update("client_name", client.Name).Error; err != nil {
				return err
			}
		}

		action := models.ActionClientUpdated
		if created {
			action = models.ActionClientCreated
		}
		_, err = cmd.recorder.RecordTx(tx, actor, action, "client", client.ID, client.Name,
			models.SeverityInfo, "", nil)
		return err
	})
	if err != nil {
		return err
	}

	eventType := "client_updated"
	if created {
		eventType = "client_created"
	}
	cmd.emit(actor, eventType, "client", client.ID, client)
	return nil
}

// DeleteClient soft-deletes a client, keeping an undo snapshot in the audit
// trail.
func (cmd *Commands) DeleteClient(actor *models.UserInfo, clientID string) error {
	var client models.Client

	err := cmd.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND workspace_slug = ?", clientID, actor.WorkspaceSlug).First(&client).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.NotFoundError("client not found")
			}
			return err
		}

		if err := tx.Delete(&client).Error; err != nil {
			return err
		}

		_, err := cmd.recorder.RecordTx(tx, actor, models.ActionClientDeleted, "client", client.ID, client.Name,
			models.SeverityCritical, "", client)
		return err
	})
	if err != nil {
		return err
	}

	cmd.emit(actor, "client_deleted", "client", clientID, nil)
	return nil
}

// MoveLead applies a validated status transition on the sales funnel, the
// same rules as MoveTask.
func (cmd *Commands) MoveLead(actor *models.UserInfo, leadID, newStatus string, expectedVersion int64) (*models.Lead, error) {
	var lead models.Lead

	err := cmd.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND workspace_slug = ?", leadID, actor.WorkspaceSlug).First(&lead).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.NotFoundError("lead not found")
			}
			return err
		}

		var pipeline models.Pipeline
		if err := tx.Where("id = ? AND workspace_slug = ?", lead.PipelineID, actor.WorkspaceSlug).First(&pipeline).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.ValidationError("lead references an unknown pipeline")
			}
			return err
		}

		if err := ValidateStatus(&pipeline, newStatus); err != nil {
			return err
		}

		if expectedVersion != 0 && expectedVersion != lead.Version {
			return utils.ConflictError("lead was modified by another session")
		}

		previous := lead
		lead.Status = newStatus
		lead.Version++

		if err := tx.Save(&lead).Error; err != nil {
			return err
		}

		_, err := cmd.recorder.RecordTx(tx, actor, models.ActionLeadMoved, "lead", lead.ID, lead.Name,
			models.SeverityInfo, "moved to "+newStatus, previous)
		return err
	})
	if err != nil {
		return nil, err
	}

	cmd.emit(actor, "lead_moved", "lead", lead.ID, lead)
	return &lead, nil
}

// DeletePipeline removes a pipeline once no tasks or leads reference it.
func (cmd *Commands) DeletePipeline(actor *models.UserInfo, pipelineID string) error {
	var pipeline models.Pipeline

	err := cmd.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND workspace_slug = ?", pipelineID, actor.WorkspaceSlug).First(&pipeline).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.NotFoundError("pipeline not found")
			}
			return err
		}

		var occupants int64
		if pipeline.Kind == models.PipelineKindLeads {
			if err := tx.Model(&models.Lead{}).
				Where("workspace_slug = ? AND pipeline_id = ?", actor.WorkspaceSlug, pipelineID).
				Count(&occupants).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&models.Task{}).
				Where("workspace_slug = ? AND pipeline_id = ?", actor.WorkspaceSlug, pipelineID).
				Count(&occupants).Error; err != nil {
				return err
			}
		}

		if occupants > 0 {
			return utils.ConflictError("pipeline still holds items and cannot be deleted")
		}

		if err := tx.Delete(&pipeline).Error; err != nil {
			return err
		}

		_, err := cmd.recorder.RecordTx(tx, actor, models.ActionPipelineDeleted, "pipeline", pipeline.ID, pipeline.Name,
			models.SeverityCritical, "", pipeline)
		return err
	})
	if err != nil {
		return err
	}

	cmd.emit(actor, "pipeline_deleted", "pipeline", pipelineID, nil)
	return nil
}
