package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/contabilflow/backend/shared/models"
	"github.com/contabilflow/backend/shared/utils"
)

// Relay drains parked workspace events back to the downstream webhook with
// exponential backoff. An event is abandoned after maxRetries attempts.
type Relay struct {
	db            *gorm.DB
	client        *DownstreamClient
	maxRetries    int
	batchSize     int
	checkInterval time.Duration
}

// NewRelay creates a relay over the outbox table.
func NewRelay(db *gorm.DB, client *DownstreamClient) *Relay {
	return &Relay{
		db:            db,
		client:        client,
		maxRetries:    8,
		batchSize:     100,
		checkInterval: 30 * time.Second,
	}
}

// backoffDelay returns the wait before the given retry attempt:
// 1m, 2m, 4m, 8m, ... doubling per attempt.
func backoffDelay(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	return time.Minute * time.Duration(1<<(retryCount-1))
}

// Park stores a failed event for later retry.
func (r *Relay) Park(event models.WorkspaceEvent, payload []byte, cause error) error {
	nextRetryAt := time.Now().Add(backoffDelay(1))

	entry := models.OutboxEntry{
		ID:              utils.NewID("ob"),
		WorkspaceSlug:   event.WorkspaceSlug,
		OriginalEventID: event.ID,
		EventType:       event.EventType,
		Payload:         string(payload),
		ErrorMessage:    cause.Error(),
		Status:          models.OutboxPending,
		NextRetryAt:     &nextRetryAt,
	}

	return r.db.Create(&entry).Error
}

// ProcessPending retries parked events that are due. Runs until the process
// exits.
func (r *Relay) ProcessPending() {
	logrus.Info("Starting outbox relay...")

	for {
		var pending []models.OutboxEntry
		err := r.db.Where("status = ? AND next_retry_at <= ?", models.OutboxPending, time.Now()).
			Order("created_at ASC").
			Limit(r.batchSize).
			Find(&pending).Error

		if err != nil {
			logrus.Errorf("Error fetching outbox entries: %v", err)
			time.Sleep(r.checkInterval)
			continue
		}

		if len(pending) == 0 {
			time.Sleep(r.checkInterval)
			continue
		}

		logrus.Infof("Retrying %d parked workspace events", len(pending))

		for _, entry := range pending {
			if err := r.retryEntry(entry); err != nil {
				logrus.Errorf("Failed to retry outbox entry %s: %v", entry.ID, err)
			}
		}

		time.Sleep(r.checkInterval)
	}
}

// retryEntry resends one parked event and updates its delivery state.
func (r *Relay) retryEntry(entry models.OutboxEntry) error {
	if err := r.client.Forward(entry.EventType, entry.WorkspaceSlug, []byte(entry.Payload)); err != nil {
		return r.recordFailure(entry, err)
	}
	return r.markResolved(entry)
}

// recordFailure bumps the retry count and schedules the next attempt, or
// abandons the entry once maxRetries is reached.
func (r *Relay) recordFailure(entry models.OutboxEntry, cause error) error {
	entry.RetryCount++
	entry.UpdatedAt = time.Now()

	if entry.RetryCount >= r.maxRetries {
		now := time.Now()
		entry.Status = models.OutboxPermanentlyFailed
		entry.ResolvedAt = &now
		entry.ErrorMessage = fmt.Sprintf("Max retries reached: %s", cause.Error())
	} else {
		nextRetryAt := time.Now().Add(backoffDelay(entry.RetryCount))
		entry.NextRetryAt = &nextRetryAt
		entry.ErrorMessage = cause.Error()
	}

	return r.db.Save(&entry).Error
}

// markResolved marks a parked event as delivered.
func (r *Relay) markResolved(entry models.OutboxEntry) error {
	now := time.Now()
	entry.Status = models.OutboxResolved
	entry.UpdatedAt = now
	entry.ResolvedAt = &now

	return r.db.Save(&entry).Error
}

// Stats returns outbox delivery statistics.
func (r *Relay) Stats() map[string]interface{} {
	var stats struct {
		Pending           int64 `json:"pending"`
		Resolved          int64 `json:"resolved"`
		PermanentlyFailed int64 `json:"permanently_failed"`
	}

	r.db.Model(&models.OutboxEntry{}).Where("status = ?", models.OutboxPending).Count(&stats.Pending)
	r.db.Model(&models.OutboxEntry{}).Where("status = ?", models.OutboxResolved).Count(&stats.Resolved)
	r.db.Model(&models.OutboxEntry{}).Where("status = ?", models.OutboxPermanentlyFailed).Count(&stats.PermanentlyFailed)

	return map[string]interface{}{
		"outbox_stats": stats,
		"config": map[string]interface{}{
			"max_retries":    r.maxRetries,
			"batch_size":     r.batchSize,
			"check_interval": r.checkInterval.String(),
		},
	}
}
