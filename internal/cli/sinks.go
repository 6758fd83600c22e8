package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saicharan2011-ops/EchoAlert/internal/audio"
	"github.com/saicharan2011-ops/EchoAlert/internal/collector"
	"github.com/saicharan2011-ops/EchoAlert/internal/trigger"
)

// remoteSink is the listen process's side of a two-process deployment:
// events go over HTTP to the camera process, normal windows turn into
// collector heartbeats.
type remoteSink struct {
	client     *trigger.Client
	col        *collector.Client
	locationID string
	log        *slog.Logger
}

func (s *remoteSink) OnEvent(ctx context.Context, res audio.Result) {
	ev := trigger.Event{
		ID:         uuid.NewString(),
		Type:       res.Label,
		Timestamp:  res.Timestamp,
		LocationID: s.locationID,
	}
	if err := s.client.Trigger(ctx, ev); err != nil {
		s.log.Warn("trigger dispatch failed", "event_id", ev.ID, "error", err)
	}
}

func (s *remoteSink) OnNormal(ctx context.Context, res audio.Result) {
	s.col.Heartbeat(ctx, collector.Status{
		MicActive:    true,
		CameraActive: true,
		LastUpdate:   time.Now(),
		AudioLevel:   audio.LevelDB(res.Energy),
	})
}

// localSink feeds the in-process coordinator directly in run mode.
type localSink struct {
	coord      *trigger.Coordinator
	col        *collector.Client
	locationID string
}

func (s *localSink) OnEvent(_ context.Context, res audio.Result) {
	s.coord.Enqueue(trigger.Event{
		ID:         uuid.NewString(),
		Type:       res.Label,
		Timestamp:  res.Timestamp,
		LocationID: s.locationID,
	})
}

func (s *localSink) OnNormal(ctx context.Context, res audio.Result) {
	s.col.Heartbeat(ctx, collector.Status{
		MicActive:    true,
		CameraActive: true,
		LastUpdate:   time.Now(),
		AudioLevel:   audio.LevelDB(res.Energy),
	})
}
