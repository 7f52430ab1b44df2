package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/contabilflow/backend/shared/config"
	"github.com/contabilflow/backend/shared/middleware"
	"github.com/contabilflow/backend/shared/utils"
)

func serviceURL(envVar, fallback string) string {
	if url := os.Getenv(envVar); url != "" {
		return url
	}
	return fallback
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	// Initialize Redis for caching
	if err := utils.InitRedis(); err != nil {
		logrus.Warnf("Failed to connect to Redis, caching disabled: %v", err)
	}

	// The gateway shares the tenant store for permission lookups
	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize authentication middleware
	authMiddleware, err := middleware.NewAuthMiddleware(db)
	if err != nil {
		log.Fatal("Failed to initialize auth middleware:", err)
	}

	// Initialize service clients
	serviceClients := &ServiceClients{
		AuthService:      NewServiceClient(serviceURL("AUTH_SERVICE_URL", "http://localhost:8001")),
		WorkspaceService: NewServiceClient(serviceURL("WORKSPACE_SERVICE_URL", "http://localhost:8002")),
		CRMService:       NewServiceClient(serviceURL("CRM_SERVICE_URL", "http://localhost:8003")),
		AuditService:     NewServiceClient(serviceURL("AUDIT_SERVICE_URL", "http://localhost:8004")),
		DocumentsService: NewServiceClient(serviceURL("DOCUMENTS_SERVICE_URL", "http://localhost:8006")),
		MessagingService: NewServiceClient(serviceURL("MESSAGING_SERVICE_URL", "http://localhost:8007")),
	}

	// Initialize Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "API Gateway is healthy", nil)
	})

	// Aggregate downstream health
	router.GET("/status", func(c *gin.Context) {
		utils.OKResponse(c, "Service status", serviceClients.GetServiceStatus())
	})

	// Authentication routes
	auth := router.Group("/auth")
	{
		auth.POST("/register", serviceClients.AuthService.ProxyRequest)
		auth.POST("/login", serviceClients.AuthService.ProxyRequest)
		auth.POST("/logout", authMiddleware.RequireAuth(), serviceClients.AuthService.ProxyRequest)
		auth.POST("/refresh", authMiddleware.RequireAuth(), serviceClients.AuthService.ProxyRequest)
	}

	// User management routes; fine-grained permission checks happen in the
	// auth service
	users := router.Group("/users")
	users.Use(authMiddleware.RequireAuth())
	{
		users.GET("/", serviceClients.AuthService.ProxyRequest)
		users.POST("/", serviceClients.AuthService.ProxyRequest)
		users.PUT("/:id", serviceClients.AuthService.ProxyRequest)
		users.DELETE("/:id", serviceClients.AuthService.ProxyRequest)
	}

	// Workspace snapshot and profile routes
	workspace := router.Group("/workspace")
	workspace.Use(authMiddleware.RequireAuth())
	{
		workspace.GET("/:slug", serviceClients.WorkspaceService.ProxyRequest)
		workspace.PUT("/:slug/profile", serviceClients.WorkspaceService.ProxyRequest)
	}

	// CRM routes: clients, tasks, pipelines and leads
	for _, prefix := range []string{"/clients", "/tasks", "/pipelines", "/leads"} {
		group := router.Group(prefix)
		group.Use(authMiddleware.RequireAuth())
		group.Any("", serviceClients.CRMService.ProxyRequest)
		group.Any("/*path", serviceClients.CRMService.ProxyRequest)
	}

	// Audit log routes
	auditRoutes := router.Group("/audit")
	auditRoutes.Use(authMiddleware.RequireAuth())
	{
		auditRoutes.GET("/", serviceClients.AuditService.ProxyRequest)
		auditRoutes.POST("/:id/undo", serviceClients.AuditService.ProxyRequest)
	}

	// Document routes
	documents := router.Group("/documents")
	documents.Use(authMiddleware.RequireAuth())
	documents.Any("", serviceClients.DocumentsService.ProxyRequest)
	documents.Any("/*path", serviceClients.DocumentsService.ProxyRequest)

	// Messaging routes
	for _, prefix := range []string{"/tickets", "/conversations"} {
		group := router.Group(prefix)
		group.Use(authMiddleware.RequireAuth())
		group.Any("", serviceClients.MessagingService.ProxyRequest)
		group.Any("/*path", serviceClients.MessagingService.ProxyRequest)
	}

	// WhatsApp gateway webhook passes through unauthenticated
	router.POST("/webhook/whatsapp", serviceClients.MessagingService.ProxyRequest)

	// Start server
	port := os.Getenv("API_GATEWAY_PORT")
	if port == "" {
		port = "8080"
	}

	logrus.Infof("API Gateway starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start API Gateway:", err)
	}
}
