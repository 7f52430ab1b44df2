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

	if err := db.AutoMigrate(&models.Document{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	store, err := NewS3Store()
	if err != nil {
		log.Fatal("Failed to initialize document storage:", err)
	}

	// Initialize authentication middleware
	authMiddleware, err := middleware.NewAuthMiddleware(db)
	if err != nil {
		log.Fatal("Failed to initialize auth middleware:", err)
	}

	recorder := audit.NewRecorder(db)

	// Initialize Gin router
	router := gin.Default()
	router.MaxMultipartMemory = 16 << 20 // 16 MiB

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Documents service is healthy", nil)
	})

	docRoutes := router.Group("/documents")
	docRoutes.Use(authMiddleware.RequireAuth())
	{
		docRoutes.GET("/", handleListDocuments(db))
		docRoutes.POST("/", authMiddleware.RequirePermission("edit_documents"), handleUploadDocument(db, store, recorder))
		docRoutes.GET("/:id/download", handleDownloadDocument(db, store))
		docRoutes.DELETE("/:id", authMiddleware.RequirePermission("delete_documents"), handleDeleteDocument(db, recorder))
	}

	// Start server
	port := os.Getenv("DOCUMENTS_SERVICE_PORT")
	if port == "" {
		port = "8006"
	}

	logrus.Infof("Documents service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start documents service:", err)
	}
}
