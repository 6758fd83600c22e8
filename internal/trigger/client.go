package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// clientTimeout keeps a stuck camera process from stalling the audio
// loop for more than a heartbeat.
const clientTimeout = time.Second

// Client posts triggers to the camera process's local endpoint.
type Client struct {
	url  string
	http *http.Client
	log  *slog.Logger
}

// NewClient returns a trigger client for the given endpoint URL.
func NewClient(url string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: clientTimeout},
		log:  logger.With("component", "trigger_client"),
	}
}

// Trigger sends the event and checks for the processing ack.
func (c *Client) Trigger(ctx context.Context, ev Event) error {
	wire := wireEvent{
		EventID:    ev.ID,
		Type:       ev.Type,
		Timestamp:  toWireTime(ev.Timestamp),
		LocationID: ev.LocationID,
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("trigger: encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("trigger: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("trigger: send event: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("trigger: endpoint returned %s", resp.Status)
	}
	return nil
}
