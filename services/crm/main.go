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

	if err := db.AutoMigrate(&models.Client{}, &models.Task{}, &models.Pipeline{}, &models.Lead{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Kafka producer for workspace events
	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		kafkaBroker = "localhost:9092"
	}

	kafkaProducer, err := NewKafkaProducer(kafkaBroker)
	if err != nil {
		log.Fatal("Failed to create Kafka producer:", err)
	}
	defer kafkaProducer.Close()

	// Initialize authentication middleware
	authMiddleware, err := middleware.NewAuthMiddleware(db)
	if err != nil {
		log.Fatal("Failed to initialize auth middleware:", err)
	}

	recorder := audit.NewRecorder(db)
	commands := NewCommands(db, recorder, kafkaProducer)
	lookup := NewLookupClient()

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "CRM service is healthy", nil)
	})

	authed := router.Group("/")
	authed.Use(authMiddleware.RequireAuth())
	{
		clients := authed.Group("/clients")
		{
			clients.POST("/", authMiddleware.RequirePermission("edit_clients"), handleUpsertClient(commands))
			clients.DELETE("/:id", authMiddleware.RequirePermission("delete_clients"), handleDeleteClient(commands))
			clients.GET("/lookup/cnpj/:cnpj", handleLookupCNPJ(lookup))
			clients.GET("/lookup/cep/:cep", handleLookupCEP(lookup))
		}

		tasks := authed.Group("/tasks")
		{
			tasks.POST("/", authMiddleware.RequirePermission("edit_tasks"), handleCreateTask(db, recorder, commands))
			tasks.PUT("/:id", authMiddleware.RequirePermission("edit_tasks"), handleUpdateTask(db, recorder, commands))
			tasks.PATCH("/:id/status", authMiddleware.RequirePermission("edit_tasks"), handleMoveTask(commands))
			tasks.DELETE("/:id", authMiddleware.RequirePermission("delete_tasks"), handleDeleteTask(db, recorder, commands))
		}

		pipelines := authed.Group("/pipelines")
		{
			pipelines.POST("/", authMiddleware.RequireRole(models.RoleManager), handleCreatePipeline(db, recorder, commands))
			pipelines.DELETE("/:id", authMiddleware.RequireRole(models.RoleManager), handleDeletePipeline(commands))
			pipelines.DELETE("/:id/columns/:column_id", authMiddleware.RequireRole(models.RoleManager), handleDeletePipelineColumn(commands))
		}

		leads := authed.Group("/leads")
		{
			leads.POST("/", authMiddleware.RequirePermission("edit_leads"), handleCreateLead(db, recorder, commands))
			leads.PATCH("/:id/status", authMiddleware.RequirePermission("edit_leads"), handleMoveLead(commands))
			leads.DELETE("/:id", authMiddleware.RequirePermission("delete_leads"), handleDeleteLead(db, recorder, commands))
		}
	}

	// Start server
	port := os.Getenv("CRM_SERVICE_PORT")
	if port == "" {
		port = "8003"
	}

	logrus.Infof("CRM service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start CRM service:", err)
	}
}
