package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/contabilflow/backend/shared/audit"
	"github.com/contabilflow/backend/shared/middleware"
	"github.com/contabilflow/backend/shared/models"
	"github.com/contabilflow/backend/shared/utils"
)

// CreateTicketRequest represents a new support ticket
type CreateTicketRequest struct {
	Subject    string              `json:"subject" binding:"required"`
	Priority   models.TaskPriority `json:"priority"`
	ClientID   string              `json:"client_id"`
	AssigneeID string              `json:"assignee_id"`
	Body       string              `json:"body"`
}

// TicketMessageRequest appends one message to a ticket thread
type TicketMessageRequest struct {
	Body     string `json:"body" binding:"required"`
	Internal bool   `json:"internal"`
}

// UpdateTicketStatusRequest changes a ticket's lifecycle state
type UpdateTicketStatusRequest struct {
	Status          models.TicketStatus `json:"status" binding:"required"`
	ExpectedVersion int64               `json:"expected_version"`
}

// SendMessageRequest sends a WhatsApp message inside a conversation
type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// InboundMessage is the webhook payload for a received WhatsApp message
type InboundMessage struct {
	Phone       string `json:"phone" binding:"required"`
	ContactName string `json:"contact_name"`
	Body        string `json:"body" binding:"required"`
}

func newThreadMessage(actor *models.UserInfo, body string, internal bool) models.TicketMessage {
	return models.TicketMessage{
		ID:        utils.NewID("msg"),
		AuthorID:  actor.UserID,
		Author:    actor.Name,
		Body:      body,
		Internal:  internal,
		CreatedAt: time.Now(),
	}
}

// handleCreateTicket opens a support ticket, optionally linked to a client.
func handleCreateTicket(db *gorm.DB, recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var req CreateTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request payload")
			return
		}

		ticket := models.Ticket{
			ID:            utils.NewID("tk"),
			WorkspaceSlug: actor.WorkspaceSlug,
			Subject:       req.Subject,
			Status:        models.TicketOpen,
			Priority:      req.Priority,
			ClientID:      req.ClientID,
			AssigneeID:    req.AssigneeID,
			Version:       1,
		}
		if ticket.Priority == "" {
			ticket.Priority = models.PriorityMedium
		}

		if req.ClientID != "" {
			var client models.Client
			if err := db.Where("id = ? AND workspace_slug = ?", req.ClientID, actor.WorkspaceSlug).
				First(&client).Error; err != nil {
				utils.NotFoundResponse(c, "Client not found")
				return
			}
			ticket.ClientName = client.Name
		}

		if req.Body != "" {
			ticket.Messages = models.TicketMessages{newThreadMessage(actor, req.Body, false)}
		}

		if err := db.Create(&ticket).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create ticket")
			return
		}

		if _, err := recorder.Record(actor, models.ActionTicketCreated, "ticket", ticket.ID, ticket.Subject,
			models.SeverityInfo, "", nil); err != nil {
			logrus.Errorf("Failed to record ticket creation: %v", err)
		}

		utils.CreatedResponse(c, "Ticket created successfully", ticket)
	}
}

// handleGetTickets lists the workspace's tickets, newest first.
func handleGetTickets(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		query := db.Where("workspace_slug = ?", actor.WorkspaceSlug)
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var tickets []models.Ticket
		if err := query.Order("created_at DESC").Find(&tickets).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch tickets")
			return
		}

		utils.OKResponse(c, "Tickets retrieved successfully", tickets)
	}
}

// handleAddTicketMessage appends a message to the ticket thread.
func handleAddTicketMessage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var req TicketMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request payload")
			return
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			var ticket models.Ticket
			if err := tx.Where("id = ? AND workspace_slug = ?", c.Param("id"), actor.WorkspaceSlug).
				First(&ticket).Error; err != nil {
				return utils.NotFoundError("ticket not found")
			}
			if ticket.Status == models.TicketClosed {
				return utils.ConflictError("ticket is closed")
			}

			ticket.Messages = append(ticket.Messages, newThreadMessage(actor, req.Body, req.Internal))
			ticket.Version++
			return tx.Save(&ticket).Error
		})
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Message added successfully", nil)
	}
}

// handleUpdateTicketStatus moves a ticket through its lifecycle. Closing a
// ticket is recorded in the audit log.
func handleUpdateTicketStatus(db *gorm.DB, recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var req UpdateTicketStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request payload")
			return
		}

		switch req.Status {
		case models.TicketOpen, models.TicketInProgress, models.TicketResolved, models.TicketClosed:
		default:
			utils.DomainErrorResponse(c, utils.ValidationError("unknown ticket status "+string(req.Status)))
			return
		}

		var ticket models.Ticket
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("id = ? AND workspace_slug = ?", c.Param("id"), actor.WorkspaceSlug).
				First(&ticket).Error; err != nil {
				return utils.NotFoundError("ticket not found")
			}
			if req.ExpectedVersion != 0 && ticket.Version != req.ExpectedVersion {
				return utils.ConflictError("ticket was modified by someone else")
			}

			ticket.Status = req.Status
			ticket.Version++
			return tx.Save(&ticket).Error
		})
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		if req.Status == models.TicketClosed {
			if _, err := recorder.Record(actor, models.ActionTicketClosed, "ticket", ticket.ID, ticket.Subject,
				models.SeverityInfo, "", nil); err != nil {
				logrus.Errorf("Failed to record ticket close: %v", err)
			}
		}

		utils.OKResponse(c, "Ticket updated successfully", ticket)
	}
}

// handleGetConversations lists WhatsApp threads, most recent activity first.
func handleGetConversations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var conversations []models.Conversation
		if err := db.Where("workspace_slug = ?", actor.WorkspaceSlug).
			Order("last_message_at DESC").
			Find(&conversations).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch conversations")
			return
		}

		utils.OKResponse(c, "Conversations retrieved successfully", conversations)
	}
}

// handleSendMessage sends a WhatsApp message and appends it to the thread.
// The gateway call happens first so a delivery failure never leaves a ghost
// message in the conversation.
func handleSendMessage(db *gorm.DB, wa *WhatsAppClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var req SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request payload")
			return
		}

		var conversation models.Conversation
		if err := db.Where("id = ? AND workspace_slug = ?", c.Param("id"), actor.WorkspaceSlug).
			First(&conversation).Error; err != nil {
			utils.NotFoundResponse(c, "Conversation not found")
			return
		}

		if err := wa.SendText(conversation.ContactPhone, req.Body); err != nil {
			logrus.Errorf("Failed to send WhatsApp message: %v", err)
			utils.DomainErrorResponse(c, err)
			return
		}

		now := time.Now()
		conversation.Messages = append(conversation.Messages, newThreadMessage(actor, req.Body, false))
		conversation.LastMessageAt = &now
		if err := db.Save(&conversation).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to save message")
			return
		}

		utils.OKResponse(c, "Message sent successfully", nil)
	}
}

// handleInboundMessage receives webhook deliveries from the WhatsApp gateway
// and upserts the conversation thread. The webhook is registered per instance
// with the target workspace in the query string.
func handleInboundMessage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Query("workspace")
		if slug == "" {
			utils.BadRequestResponse(c, "Missing workspace parameter")
			return
		}

		var msg InboundMessage
		if err := c.ShouldBindJSON(&msg); err != nil {
			utils.BadRequestResponse(c, "Invalid webhook payload")
			return
		}

		now := time.Now()
		inbound := models.TicketMessage{
			ID:        utils.NewID("msg"),
			Author:    msg.ContactName,
			Body:      msg.Body,
			CreatedAt: now,
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			var conversation models.Conversation
			err := tx.Where("workspace_slug = ? AND contact_phone = ?", slug, msg.Phone).
				First(&conversation).Error
			if err == gorm.ErrRecordNotFound {
				conversation = models.Conversation{
					ID:            utils.NewID("conv"),
					WorkspaceSlug: slug,
					ContactName:   msg.ContactName,
					ContactPhone:  msg.Phone,
				}

				// Link the thread to a client when the phone number matches
				var client models.Client
				if err := tx.Where("workspace_slug = ? AND phone = ?", slug, msg.Phone).
					First(&client).Error; err == nil {
					conversation.ClientID = client.ID
					conversation.ContactName = client.Name
				}
			} else if err != nil {
				return err
			}

			conversation.Messages = append(conversation.Messages, inbound)
			conversation.LastMessageAt = &now
			return tx.Save(&conversation).Error
		})
		if err != nil {
			logrus.Errorf("Failed to store inbound message: %v", err)
			utils.InternalServerErrorResponse(c, "Failed to store message")
			return
		}

		utils.OKResponse(c, "Message received", nil)
	}
}
