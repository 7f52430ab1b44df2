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

	// Initialize Redis for snapshot caching
	if err := utils.InitRedis(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer utils.CloseRedis()

	// Initialize database
	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(&models.Tenant{}, &models.Profile{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize authentication middleware
	authMiddleware, err := middleware.NewAuthMiddleware(db)
	if err != nil {
		log.Fatal("Failed to initialize auth middleware:", err)
	}

	loader := NewLoader(db)
	recorder := audit.NewRecorder(db)

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Workspace service is healthy", nil)
	})

	// Workspace routes
	workspaces := router.Group("/workspace")
	workspaces.Use(authMiddleware.RequireAuth())
	{
		workspaces.GET("/:slug", authMiddleware.RequireWorkspaceAccess(), handleGetWorkspace(loader))
		workspaces.PUT("/:slug/profile",
			authMiddleware.RequireWorkspaceAccess(),
			authMiddleware.RequireRole(models.RoleAdmin),
			handleUpdateProfile(db, recorder))
	}

	// Start server
	port := os.Getenv("WORKSPACE_SERVICE_PORT")
	if port == "" {
		port = "8002"
	}

	logrus.Infof("Workspace service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start workspace service:", err)
	}
}
