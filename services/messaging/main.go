package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/contabilflow/backend/shared/audit"
	"github.com/contabilflow/backend/shared/config"
	"github.com/contabilflow/backend/shared/middleware"
	"github.com/contabilflow/backend/shared/models"
	"github.com/contabilflow/backend/shared/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	// Initialize database
	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(&models.Ticket{}, &models.Conversation{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize authentication middleware
	authMiddleware, err := middleware.NewAuthMiddleware(db)
	if err != nil {
		log.Fatal("Failed to initialize auth middleware:", err)
	}

	recorder := audit.NewRecorder(db)
	whatsapp := NewWhatsAppClient()

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint, including the WhatsApp gateway connection state
	router.GET("/health", func(c *gin.Context) {
		state, err := whatsapp.ConnectionState()
		if err != nil {
			state = "unreachable"
		}
		utils.OKResponse(c, "Messaging service is healthy", gin.H{
			"whatsapp_state": state,
		})
	})

	// WhatsApp gateway webhook, authenticated by network placement
	router.POST("/webhook/whatsapp", handleInboundMessage(db))

	ticketRoutes := router.Group("/tickets")
	ticketRoutes.Use(authMiddleware.RequireAuth())
	{
		ticketRoutes.GET("/", handleGetTickets(db))
		ticketRoutes.POST("/", handleCreateTicket(db, recorder))
		ticketRoutes.POST("/:id/messages", handleAddTicketMessage(db))
		ticketRoutes.PATCH("/:id/status", handleUpdateTicketStatus(db, recorder))
	}

	conversationRoutes := router.Group("/conversations")
	conversationRoutes.Use(authMiddleware.RequireAuth())
	{
		conversationRoutes.GET("/", handleGetConversations(db))
		conversationRoutes.POST("/:id/messages", handleSendMessage(db, whatsapp))
	}

	// Start server
	port := os.Getenv("MESSAGING_SERVICE_PORT")
	if port == "" {
		port = "8007"
	}

	logrus.Infof("Messaging service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start messaging service:", err)
	}
}
