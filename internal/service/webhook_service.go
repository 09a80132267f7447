package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	webhookTimeout  = 30 * time.Second
	webhookAgent    = "Content-Factory/1.0"
	maxResponseSize = 1 << 20
)

// WebhookDispatcher delivers one JSON payload to a webhook endpoint. Both
// the publishing and the generation paths go through it; it never touches
// post state, interpreting the outcome is the caller's job.
type WebhookDispatcher interface {
	Deliver(ctx context.Context, url string, payload any) ([]byte, error)
}

type webhookDispatcher struct {
	client *http.Client
}

func NewWebhookDispatcher() WebhookDispatcher {
	return &webhookDispatcher{
		client: &http.Client{Timeout: webhookTimeout},
	}
}

func (d *webhookDispatcher) Deliver(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", webhookAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return respBody, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return respBody, nil
}
