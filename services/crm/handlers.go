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

// MoveRequest represents a kanban status transition request
type MoveRequest struct {
	Status          string `json:"status" binding:"required"`
	ExpectedVersion int64  `json:"expected_version"`
}

// CreateTaskRequest represents the create task request
type CreateTaskRequest struct {
	PipelineID  string              `json:"pipeline_id" binding:"required"`
	Status      string              `json:"status" binding:"required"`
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	ClientID    string              `json:"client_id"`
	AssigneeID  string              `json:"assignee_id"`
	Tags        models.Tags         `json:"tags"`
	Subtasks    models.Subtasks     `json:"subtasks"`
}

// UpdateTaskRequest represents the update task request (status moves go
// through PATCH /tasks/:id/status)
type UpdateTaskRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Priority    *models.TaskPriority `json:"priority"`
	ClientID    *string              `json:"client_id"`
	AssigneeID  *string              `json:"assignee_id"`
	Tags        *models.Tags         `json:"tags"`
	Subtasks    *models.Subtasks     `json:"subtasks"`
	Comments    *models.Comments     `json:"comments"`
	Attachments *models.Attachments  `json:"attachments"`
}

// CreatePipelineRequest represents the create pipeline request
type CreatePipelineRequest struct {
	Name    string                 `json:"name" binding:"required"`
	Kind    models.PipelineKind    `json:"kind"`
	Columns models.PipelineColumns `json:"columns" binding:"required"`
}

// handleUpsertClient saves a client keyed by id (REPLACE semantics)
func handleUpsertClient(cmd *Commands) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var client models.Client
		if err := c.ShouldBindJSON(&client); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		if client.Name == "" {
			utils.BadRequestResponse(c, "Client name is required")
			return
		}
		if client.ID == "" {
			client.ID = utils.NewClientID()
		}

		if err := cmd.UpsertClient(actor, &client); err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Client saved successfully", client)
	}
}

// handleDeleteClient soft-deletes a client, keeping an undo snapshot
func handleDeleteClient(cmd *Commands) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		if err := cmd.DeleteClient(actor, c.Param("id")); err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Client deleted successfully", nil)
	}
}

// handleCreateTask creates a task after validating its status against the
// owning pipeline's column set
func handleCreateTask(db *gorm.DB, recorder *audit.Recorder, cmd *Commands) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var req CreateTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		var pipeline models.Pipeline
		if err := db.Where("id = ? AND workspace_slug = ?", req.PipelineID, actor.WorkspaceSlug).First(&pipeline).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "Pipeline not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch pipeline")
			}
			return
		}

		if err := ValidateStatus(&pipeline, req.Status); err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		task := models.Task{
			ID:            utils.NewTaskID(),
			WorkspaceSlug: actor.WorkspaceSlug,
			PipelineID:    req.PipelineID,
			Status:        req.Status,
			Title:         req.Title,
			Description:   req.Description,
			Priority:      req.Priority,
			ClientID:      req.ClientID,
			AssigneeID:    req.AssigneeID,
			Tags:          req.Tags,
			Subtasks:      req.Subtasks,
			Version:       1,
		}
		if task.Priority == "" {
			task.Priority = models.PriorityMedium
		}
		if task.ClientID != "" {
			var client models.Client
			if err := db.Where("id = ? AND workspace_slug = ?", task.ClientID, actor.WorkspaceSlug).First(&client).Error; err == nil {
				task.ClientName = client.Name
			}
		}

		if err := db.Create(&task).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create task")
			return
		}

		if _, err := recorder.Record(actor, models.ActionTaskCreated, "task", task.ID, task.Title,
			models.SeverityInfo, "", nil); err != nil {
			logrus.Errorf("Failed to record audit entry: %v", err)
		}
		cmd.emit(actor, "task_created", "task", task.ID, task)

		utils.CreatedResponse(c, "Task created successfully", task)
	}
}

// handleUpdateTask patches task fields other than status
func handleUpdateTask(db *gorm.DB, recorder *audit.Recorder, cmd *Commands) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var task models.Task
		if err := db.Where("id = ? AND workspace_slug = ?", c.Param("id"), actor.WorkspaceSlug).First(&task).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "Task not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch task")
			}
			return
		}

		var req UpdateTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		previous := task
		if req.Title != nil {
			task.Title = *req.Title
		}
		if req.Description != nil {
			task.Description = *req.Description
		}
		if req.Priority != nil {
			task.Priority = *req.Priority
		}
		if req.ClientID != nil {
			task.ClientID = *req.ClientID
			task.ClientName = ""
			if *req.ClientID != "" {
				var client models.Client
				if err := db.Where("id = ? AND workspace_slug = ?", *req.ClientID, actor.WorkspaceSlug).First(&client).Error; err == nil {
					task.ClientName = client.Name
				}
			}
		}
		if req.AssigneeID != nil {
			task.AssigneeID = *req.AssigneeID
		}
		if req.Tags != nil {
			task.Tags = *req.Tags
		}
		if req.Subtasks != nil {
			task.Subtasks = *req.Subtasks
		}
		if req.Comments != nil {
			task.Comments = *req.Comments
		}
		if req.Attachments != nil {
			task.Attachments = *req.Attachments
		}
		task.Version++

		if err := db.Save(&task).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update task")
			return
		}

		if _, err := recorder.Record(actor, models.ActionTaskUpdated, "task", task.ID, task.Title,
			models.SeverityInfo, "", previous); err != nil {
			logrus.Errorf("Failed to record audit entry: %v", err)
		}
		cmd.emit(actor, "task_updated", "task", task.ID, task)

		utils.OKResponse(c, "Task updated successfully", task)
	}
}

// handleMoveTask applies a validated status transition
func handleMoveTask(cmd *Commands) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var req MoveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		task, err := cmd.MoveTask(actor, c.Param("id"), req.Status, req.ExpectedVersion)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Task status updated", task)
	}
}

// handleDeleteTask soft-deletes a task, keeping an undo snapshot
func handleDeleteTask(db *gorm.DB, recorder *audit.Recorder, cmd *Commands) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var task models.Task
		if err := db.Where("id = ? AND workspace_slug = ?", c.Param("id"), actor.WorkspaceSlug).First(&task).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "Task not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch task")
			}
			return
		}

		if err := db.Delete(&task).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to delete task")
			return
		}

		if _, err := recorder.Record(actor, models.ActionTaskDeleted, "task", task.ID, task.Title,
			models.SeverityWarning, "", task); err != nil {
			logrus.Errorf("Failed to record audit entry: %v", err)
		}
		cmd.emit(actor, "task_deleted", "task", task.ID, nil)

		utils.OKResponse(c, "Task deleted successfully", nil)
	}
}

// handleCreatePipeline creates a task or lead pipeline
func handleCreatePipeline(db *gorm.DB, recorder *audit.Recorder, cmd *Commands) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var req CreatePipelineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		if len(req.Columns) == 0 {
			utils.BadRequestResponse(c, "Pipeline needs at least one column")
			return
		}

		kind := req.Kind
		if kind == "" {
			kind = models.PipelineKindTasks
		}

		pipeline := models.Pipeline{
			ID:            utils.NewPipelineID(),
			WorkspaceSlug: actor.WorkspaceSlug,
			Kind:          kind,
			Name:          req.Name,
			Columns:       req.Columns,
			Version:       1,
		}

		if err := db.Create(&pipeline).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create pipeline")
			return
		}

		if _, err := recorder.Record(actor, models.ActionPipelineCreated, "pipeline", pipeline.ID, pipeline.Name,
			models.SeverityInfo, "", nil); err != nil {
			logrus.Errorf("Failed to record audit entry: %v", err)
		}
		cmd.emit(actor, "pipeline_created", "pipeline", pipeline.ID, pipeline)

		utils.CreatedResponse(c, "Pipeline created successfully", pipeline)
	}
}

// handleDeletePipelineColumn removes one column through the validated command
func handleDeletePipelineColumn(cmd *Commands) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		pipeline, err := cmd.DeletePipelineColumn(actor, c.Param("id"), c.Param("column_id"))
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Column deleted successfully", pipeline)
	}
}

// handleDeletePipeline removes an empty pipeline
func handleDeletePipeline(cmd *Commands) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		if err := cmd.DeletePipeline(actor, c.Param("id")); err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Pipeline deleted successfully", nil)
	}
}

// handleCreateLead creates a sales lead on a funnel pipeline
func handleCreateLead(db *gorm.DB, recorder *audit.Recorder, cmd *Commands) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var lead models.Lead
		if err := c.ShouldBindJSON(&lead); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		if lead.Name == "" || lead.PipelineID == "" {
			utils.BadRequestResponse(c, "Lead name and pipeline_id are required")
			return
		}

		var pipeline models.Pipeline
		if err := db.Where("id = ? AND workspace_slug = ? AND kind = ?", lead.PipelineID, actor.WorkspaceSlug, models.PipelineKindLeads).First(&pipeline).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "Lead pipeline not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch pipeline")
			}
			return
		}

		if err := ValidateStatus(&pipeline, lead.Status); err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		lead.ID = utils.NewLeadID()
		lead.WorkspaceSlug = actor.WorkspaceSlug
		lead.Version = 1

		if err := db.Create(&lead).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create lead")
			return
		}

		if _, err := recorder.Record(actor, models.ActionLeadCreated, "lead", lead.ID, lead.Name,
			models.SeverityInfo, "", nil); err != nil {
			logrus.Errorf("Failed to record audit entry: %v", err)
		}
		cmd.emit(actor, "lead_created", "lead", lead.ID, lead)

		utils.CreatedResponse(c, "Lead created successfully", lead)
	}
}

// handleMoveLead applies a validated funnel transition
func handleMoveLead(cmd *Commands) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var req MoveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		lead, err := cmd.MoveLead(actor, c.Param("id"), req.Status, req.ExpectedVersion)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Lead status updated", lead)
	}
}

// handleDeleteLead soft-deletes a lead, keeping an undo snapshot
func handleDeleteLead(db *gorm.DB, recorder *audit.Recorder, cmd *Commands) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var lead models.Lead
		if err := db.Where("id = ? AND workspace_slug = ?", c.Param("id"), actor.WorkspaceSlug).First(&lead).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "Lead not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch lead")
			}
			return
		}

		if err := db.Delete(&lead).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to delete lead")
			return
		}

		if _, err := recorder.Record(actor, models.ActionLeadDeleted, "lead", lead.ID, lead.Name,
			models.SeverityWarning, "", lead); err != nil {
			logrus.Errorf("Failed to record audit entry: %v", err)
		}
		cmd.emit(actor, "lead_deleted", "lead", lead.ID, nil)

		utils.OKResponse(c, "Lead deleted successfully", nil)
	}
}
