package main

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/contabilflow/backend/shared/utils"
)

// DownstreamClient forwards workspace events to the configured integration
// webhook. Calls go through a circuit breaker so a dead downstream does not
// burn a full timeout per event.
type DownstreamClient struct {
	httpClient *resty.Client
	breaker    *utils.CircuitBreaker
}

// NewDownstreamClient creates a webhook client.
func NewDownstreamClient(baseURL string) *DownstreamClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &DownstreamClient{
		httpClient: client,
		breaker:    utils.NewCircuitBreaker(5, 30*time.Second),
	}
}

// Forward delivers one serialized workspace event.
func (dc *DownstreamClient) Forward(eventType, workspaceSlug string, payload []byte) error {
	return dc.breaker.Call(func() error {
		resp, err := dc.httpClient.R().
			SetHeader("X-Event-Type", eventType).
			SetHeader("X-Workspace-Slug", workspaceSlug).
			SetBody(payload).
			Post("/events")
		if err != nil {
			return fmt.Errorf("failed to forward workspace event: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("downstream returned status %d", resp.StatusCode())
		}
		return nil
	})
}
