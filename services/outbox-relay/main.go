package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/contabilflow/backend/shared/config"
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

	if err := db.AutoMigrate(&models.OutboxEntry{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	downstreamURL := os.Getenv("DOWNSTREAM_ENDPOINT")
	if downstreamURL == "" {
		downstreamURL = "http://localhost:9000"
	}
	client := NewDownstreamClient(downstreamURL)
	relay := NewRelay(db, client)

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		kafkaBroker = "localhost:9092"
	}
	consumer, err := NewKafkaConsumer(kafkaBroker)
	if err != nil {
		log.Fatal("Failed to create Kafka consumer:", err)
	}
	defer consumer.Close()

	// Start consumer and retry loop in background
	go consumer.ConsumeWorkspaceEvents(client, relay)
	go relay.ProcessPending()

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Outbox relay is healthy", nil)
	})

	// Outbox statistics endpoint
	router.GET("/stats", func(c *gin.Context) {
		utils.OKResponse(c, "Outbox statistics", relay.Stats())
	})

	// Start server
	port := os.Getenv("OUTBOX_RELAY_PORT")
	if port == "" {
		port = "8005"
	}

	logrus.Infof("Outbox relay starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start outbox relay:", err)
	}
}
