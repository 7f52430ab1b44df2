package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/contabilflow/backend/shared/models"
)

// KafkaConsumer handles workspace event consumption
type KafkaConsumer struct {
	eventReader *kafka.Reader
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(broker string) (*KafkaConsumer, error) {
	eventReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{broker},
		Topic:          "workspace-events",
		GroupID:        "outbox-relay",
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &KafkaConsumer{
		eventReader: eventReader,
	}, nil
}

// ConsumeWorkspaceEvents forwards workspace events downstream; failures are
// parked in the outbox for the retry loop.
func (kc *KafkaConsumer) ConsumeWorkspaceEvents(client *DownstreamClient, relay *Relay) {
	logrus.Info("Starting workspace events consumer...")

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		msg, err := kc.eventReader.ReadMessage(ctx)
		cancel()

		if err != nil {
			// Timeouts are expected when no messages are available
			if err == context.DeadlineExceeded {
				continue
			}
			logrus.Errorf("Error reading workspace event: %v", err)
			time.Sleep(1 * time.Second)
			continue
		}

		var event models.WorkspaceEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logrus.Errorf("Error unmarshaling workspace event: %v", err)
			continue
		}

		if err := client.Forward(event.EventType, event.WorkspaceSlug, msg.Value); err != nil {
			logrus.Errorf("Error forwarding workspace event %s: %v", event.ID, err)
			if parkErr := relay.Park(event, msg.Value, err); parkErr != nil {
				logrus.Errorf("Failed to park workspace event: %v", parkErr)
			}
		}
	}
}

// Close closes the Kafka consumer
func (kc *KafkaConsumer) Close() error {
	if err := kc.eventReader.Close(); err != nil {
		return fmt.Errorf("failed to close event reader: %w", err)
	}
	return nil
}
