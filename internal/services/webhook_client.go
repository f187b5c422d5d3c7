package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fellas-token/backend/internal/events"
	"github.com/fellas-token/backend/internal/metrics"
	"go.uber.org/zap"
)

// WebhookClient posts collection events to an external endpoint.
type WebhookClient struct {
	url        string
	httpClient *http.Client
	log        *zap.Logger
}

func NewWebhookClient(url string, log *zap.Logger) *WebhookClient {
	return &WebhookClient{
		url: url,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

func (c *WebhookClient) Send(ctx context.Context, event events.Event) (err error) {
	defer func() { metrics.WebhookDeliveries.WithLabelValues(metrics.Result(err)).Inc() }()

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Fellas-Event", event.Type)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
