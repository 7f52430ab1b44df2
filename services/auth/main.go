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

	// Initialize Redis for session management
	if err := utils.InitRedis(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer utils.CloseRedis()

	// Initialize database
	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(&models.Tenant{}, &models.Profile{}, &models.User{}); err != nil {
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
		utils.OKResponse(c, "Auth service is healthy", nil)
	})

	// Public routes
	auth := router.Group("/auth")
	{
		auth.POST("/register", handleRegister(db, authMiddleware))
		auth.POST("/login", handleLogin(db, authMiddleware))
		auth.POST("/logout", handleLogout())
		auth.POST("/refresh", authMiddleware.RequireAuth(), handleRefresh(db, authMiddleware))
	}

	// Workspace user management
	users := router.Group("/users")
	users.Use(authMiddleware.RequireAuth())
	{
		users.GET("/", handleGetUsers(db))
		users.POST("/", authMiddleware.RequirePermission("manage_users"), handleInviteUser(db, recorder))
		users.PUT("/:id", authMiddleware.RequirePermission("manage_users"), handleUpdateUser(db, recorder))
		users.DELETE("/:id", authMiddleware.RequireRole(models.RoleAdmin), handleDeleteUser(db, recorder))
	}

	// Start server
	port := os.Getenv("AUTH_SERVICE_PORT")
	if port == "" {
		port = "8001"
	}

	logrus.Infof("Auth service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start auth service:", err)
	}
}
