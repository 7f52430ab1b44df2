package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/contabilflow/backend/shared/models"
)

// workspaceEventsTopic carries every tenant-store mutation for downstream
// consumers (outbox relay, integrations).
const workspaceEventsTopic = "workspace-events"

// KafkaProducer handles Kafka message production with a worker pool
type KafkaProducer struct {
	writer       *kafka.Writer
	eventChan    chan models.WorkspaceEvent
	workerCount  int
	shutdownChan chan struct{}
	wg           sync.WaitGroup
}

// NewKafkaProducer creates a new Kafka producer with worker pool
func NewKafkaProducer(broker string) (*KafkaProducer, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	kp := &KafkaProducer{
		writer:       writer,
		eventChan:    make(chan models.WorkspaceEvent, 1000),
		workerCount:  10,
		shutdownChan: make(chan struct{}),
	}

	kp.startWorkers()

	return kp, nil
}

// startWorkers starts the worker pool for async event publishing
func (kp *KafkaProducer) startWorkers() {
	for i := 0; i < kp.workerCount; i++ {
		kp.wg.Add(1)
		go kp.eventWorker(i)
	}

	logrus.Infof("[Kafka] Started %d event workers", kp.workerCount)
}

// eventWorker publishes workspace events from the channel
func (kp *KafkaProducer) eventWorker(id int) {
	defer kp.wg.Done()

	for {
		select {
		case event := <-kp.eventChan:
			if err := kp.publishSync(event); err != nil {
				logrus.Errorf("[Kafka Worker %d] Failed to publish workspace event: %v", id, err)
			}
		case <-kp.shutdownChan:
			logrus.Infof("[Kafka Worker %d] Shutting down event worker", id)
			return
		}
	}
}

// Publish queues a workspace event asynchronously (non-blocking)
func (kp *KafkaProducer) Publish(event models.WorkspaceEvent) error {
	select {
	case kp.eventChan <- event:
		return nil
	default:
		// Channel full - drop event
		return fmt.Errorf("workspace event queue full, event dropped")
	}
}

// publishSync writes an event to Kafka synchronously (called by workers)
func (kp *KafkaProducer) publishSync(event models.WorkspaceEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace event: %w", err)
	}

	msg := kafka.Message{
		Topic: workspaceEventsTopic,
		Key:   []byte(event.WorkspaceSlug),
		Value: message,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "workspace_slug", Value: []byte(event.WorkspaceSlug)},
			{Key: "actor_id", Value: []byte(event.ActorID)},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write workspace event to Kafka: %w", err)
	}

	return nil
}

// Close gracefully shuts down the Kafka producer and workers
func (kp *KafkaProducer) Close() error {
	close(kp.shutdownChan)
	kp.wg.Wait()
	close(kp.eventChan)

	if err := kp.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}

	return nil
}
