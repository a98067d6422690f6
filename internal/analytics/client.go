package analytics

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/arlen/lectern/internal/logger"
)

// Event names emitted by the ingestion pipeline.
const (
	EventIngestionCompleted = "lecture_ingestion_completed"
	EventIngestionFailed    = "lecture_ingestion_failed"
	EventIngestionSkipped   = "lecture_ingestion_skipped"
)

// Config holds configuration for the analytics client
type Config struct {
	APIKey string
	Host   string
}

// Client sends product analytics events to PostHog. A client constructed
// without an API key is disabled and every call is a no-op, so callers
// never need to branch on whether analytics is configured.
type Client struct {
	client *resty.Client
	apiKey string
	host   string
}

// NewClient creates a new analytics client.
// Parameters:
//   - cfg: analytics configuration; an empty APIKey disables the client.
// Returns:
//   - *Client: initialized client, possibly disabled.
func NewClient(cfg *Config) *Client {
	if cfg == nil || cfg.APIKey == "" {
		return &Client{}
	}

	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(10 * time.Second)

	return &Client{
		client: client,
		apiKey: cfg.APIKey,
		host:   cfg.Host,
	}
}

// Enabled reports whether the client will actually send events.
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// captureRequest is the PostHog single-event capture payload
type captureRequest struct {
	APIKey     string                 `json:"api_key"`
	Event      string                 `json:"event"`
	DistinctID string                 `json:"distinct_id"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Timestamp  string                 `json:"timestamp"`
}

type captureResponse struct {
	Status interface{} `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

// Capture sends one event attributed to a distinct id. Failures are logged
// and swallowed; analytics must never fail the pipeline.
// Parameters:
//   - ctx: request context for cancellation.
//   - distinctID: identity the event is attributed to.
//   - event: event name, see the Event constants.
//   - properties: optional event properties.
// Returns: none.
func (c *Client) Capture(ctx context.Context, distinctID, event string, properties map[string]interface{}) {
	if !c.Enabled() {
		return
	}

	req := captureRequest{
		APIKey:     c.apiKey,
		Event:      event,
		DistinctID: distinctID,
		Properties: properties,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	var resp captureResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(c.host + "/capture/")

	if err != nil {
		logger.CtxWarn(ctx, "Failed to send analytics event %s: %v", event, err)
		return
	}

	if httpResp.StatusCode() != 200 {
		if resp.Detail != "" {
			logger.CtxWarn(ctx, "Analytics event %s rejected: %s", event, resp.Detail)
			return
		}
		logger.CtxWarn(ctx, "Analytics event %s rejected: status %d", event, httpResp.StatusCode())
	}
}
