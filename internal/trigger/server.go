package trigger

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// wireEvent is the JSON shape carried between the listen process and the
// camera process. The timestamp is unix seconds as a float: segment
// selection works on sub-second boundaries, so the hop must not truncate
// the trigger time.
type wireEvent struct {
	EventID    string  `json:"event_id,omitempty"`
	Type       string  `json:"type"`
	Timestamp  float64 `json:"timestamp,omitempty"`
	LocationID string  `json:"location_id,omitempty"`
}

func toWireTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromWireTime(v float64) time.Time {
	sec := int64(v)
	return time.Unix(sec, int64((v-float64(sec))*1e9))
}

// Enqueuer accepts events for processing, reporting false when full.
type Enqueuer interface {
	Enqueue(ev Event) bool
}

// Server is the local trigger endpoint: POST /trigger acks immediately
// with {"status":"processing"} and lets the coordinator do the rest.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

// NewServer builds the endpoint on addr, feeding queue. locationID fills
// events that arrive without one.
func NewServer(addr, locationID string, queue Enqueuer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "trigger_server")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /trigger", func(w http.ResponseWriter, r *http.Request) {
		var wire wireEvent
		if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
			http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
			return
		}
		if wire.Type == "" {
			http.Error(w, `{"error":"type is required"}`, http.StatusBadRequest)
			return
		}

		ev := Event{
			ID:         wire.EventID,
			Type:       wire.Type,
			Timestamp:  time.Now(),
			LocationID: wire.LocationID,
		}
		if ev.LocationID == "" {
			ev.LocationID = locationID
		}
		if wire.Timestamp > 0 {
			ev.Timestamp = fromWireTime(wire.Timestamp)
		}

		if !queue.Enqueue(ev) {
			http.Error(w, `{"status":"busy"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "processing"})
	})

	return &Server{
		srv: &http.Server{Addr: addr, Handler: mux},
		log: log,
	}
}

// Handler exposes the mux, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ListenAndServe blocks until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.log.Info("trigger endpoint listening", "addr", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the endpoint gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
