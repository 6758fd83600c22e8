// Package collector is the HTTP client side of the central collector:
// event clip uploads and periodic status heartbeats.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// timestampLayout is the wire format for event timestamps.
const timestampLayout = "2006-01-02 15:04:05"

// EventMeta describes an uploaded clip.
type EventMeta struct {
	Type       string
	LocationID string
	Timestamp  time.Time
}

// Status is one heartbeat payload.
type Status struct {
	MicActive    bool      `json:"mic_active"`
	CameraActive bool      `json:"camera_active"`
	LastUpdate   time.Time `json:"last_update"`
	AudioLevel   float64   `json:"audio_level"`
}

// Client talks to the collector. Uploads are best-effort with no retry:
// a failed upload keeps the clip on disk for manual recovery. Kept clips
// are not reclaimed automatically; nothing tracks them once the upload
// has been given up on.
type Client struct {
	baseURL   string
	upload    *http.Client
	heartbeat *http.Client
	log       *slog.Logger
}

// NewClient returns a collector client for the given base URL.
func NewClient(baseURL string, uploadTimeout, heartbeatTimeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   baseURL,
		upload:    &http.Client{Timeout: uploadTimeout},
		heartbeat: &http.Client{Timeout: heartbeatTimeout},
		log:       logger.With("component", "collector"),
	}
}

// UploadEvent posts the clip as multipart form data to /api/event. On a
// 2xx response the local clip is deleted; on any failure it is kept and
// the error returned.
func (c *Client) UploadEvent(ctx context.Context, clipPath string, meta EventMeta) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := map[string]string{
		"type":        meta.Type,
		"location_id": meta.LocationID,
		"timestamp":   meta.Timestamp.Format(timestampLayout),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("collector: build form: %w", err)
		}
	}

	clip, err := os.Open(clipPath)
	if err != nil {
		return fmt.Errorf("collector: open clip: %w", err)
	}
	defer clip.Close()

	part, err := mw.CreateFormFile("video", filepath.Base(clipPath))
	if err != nil {
		return fmt.Errorf("collector: build form: %w", err)
	}
	if _, err := io.Copy(part, clip); err != nil {
		return fmt.Errorf("collector: read clip: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("collector: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/event", &body)
	if err != nil {
		return fmt.Errorf("collector: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.upload.Do(req)
	if err != nil {
		return fmt.Errorf("collector: upload event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("collector: upload rejected: %s", resp.Status)
	}

	var ack struct {
		EventID int64 `json:"event_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err == nil && ack.EventID != 0 {
		c.log.Info("event uploaded", "type", meta.Type, "event_id", ack.EventID)
	} else {
		c.log.Info("event uploaded", "type", meta.Type)
	}

	if err := os.Remove(clipPath); err != nil {
		c.log.Warn("failed to remove uploaded clip", "path", clipPath, "error", err)
	}
	return nil
}

// Heartbeat posts the current status to /api/status. Fire-and-forget:
// failures are logged at debug and never surfaced, so a flaky collector
// cannot perturb the audio loop.
func (c *Client) Heartbeat(ctx context.Context, status Status) {
	payload, err := json.Marshal(status)
	if err != nil {
		c.log.Debug("heartbeat encode failed", "error", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/status", bytes.NewReader(payload))
	if err != nil {
		c.log.Debug("heartbeat request failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.heartbeat.Do(req)
	if err != nil {
		c.log.Debug("heartbeat failed", "error", err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
