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

	if err := db.AutoMigrate(&models.AuditLogEntry{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize authentication middleware
	authMiddleware, err := middleware.NewAuthMiddleware(db)
	if err != nil {
		log.Fatal("Failed to initialize auth middleware:", err)
	}

	recorder := audit.NewRecorder(db)

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Audit service is healthy", nil)
	})

	auditRoutes := router.Group("/audit")
	auditRoutes.Use(authMiddleware.RequireAuth())
	{
		auditRoutes.GET("/", handleGetAuditLog(recorder))
		auditRoutes.POST("/:id/undo", authMiddleware.RequireRole(models.RoleManager), handleUndoEntry(db, recorder))
	}

	// Start server
	port := os.Getenv("AUDIT_SERVICE_PORT")
	if port == "" {
		port = "8004"
	}

	logrus.Infof("Audit service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start audit service:", err)
	}
}
