// Package buffer maintains the rolling on-disk video buffer: a time-ordered
// index of fixed-duration segments with age- and count-bounded eviction.
package buffer

import (
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"
)

// evictEvery bounds eviction overhead: the age/count check runs once per
// this many appends rather than on every append.
const evictEvery = 10

// Segment is one recorded video chunk. Immutable once appended.
type Segment struct {
	Timestamp time.Time
	Path      string
	Duration  time.Duration
}

// End returns the instant just past the segment's recorded interval.
func (s Segment) End() time.Time {
	return s.Timestamp.Add(s.Duration)
}

// Store owns the segment index. Exactly one writer (the recorder) appends;
// any number of readers take snapshots. The mutex guards only the index,
// never file I/O, so slow disks cannot stall the recorder.
type Store struct {
	maxAge   time.Duration
	maxFiles int
	log      *slog.Logger
	clock    func() time.Time

	mu       sync.Mutex
	segments []Segment
	appends  int
}

// NewStore creates a Store bounded by maxAge (primary policy) and maxFiles
// (secondary hard cap protecting the disk if the clock misbehaves).
func NewStore(maxAge time.Duration, maxFiles int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		maxAge:   maxAge,
		maxFiles: maxFiles,
		log:      logger.With("component", "buffer"),
		clock:    time.Now,
	}
}

// Append adds a newly closed segment and periodically runs eviction.
func (s *Store) Append(seg Segment) {
	s.mu.Lock()
	s.segments = append(s.segments, seg)
	s.appends++
	due := s.appends%evictEvery == 0
	s.mu.Unlock()

	if due {
		s.Evict()
	}
}

// Snapshot returns a time-ordered copy of the current index, safe to use
// while the recorder keeps appending.
func (s *Store) Snapshot() []Segment {
	s.mu.Lock()
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Len returns the number of indexed segments.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.segments)
}

// Evict drops segments older than the age bound, then the oldest segments
// beyond the count cap. Victims are removed from the index first and
// unlinked after the lock is released; a failed unlink is logged and the
// entry stays dropped.
func (s *Store) Evict() {
	cutoff := s.clock().Add(-s.maxAge)

	s.mu.Lock()
	// Segments arrive in increasing timestamp order, so eviction always
	// removes a prefix: first everything past the age bound, then however
	// many more the count cap demands.
	n := 0
	for n < len(s.segments) && s.segments[n].Timestamp.Before(cutoff) {
		n++
	}
	if excess := len(s.segments) - s.maxFiles; excess > n {
		n = excess
	}
	victims := make([]Segment, n)
	copy(victims, s.segments[:n])
	s.segments = append(s.segments[:0], s.segments[n:]...)
	s.mu.Unlock()

	for _, seg := range victims {
		if err := os.Remove(seg.Path); err != nil && !os.IsNotExist(err) {
			s.log.Warn("failed to remove evicted segment", "path", seg.Path, "error", err)
		}
	}
	if len(victims) > 0 {
		s.log.Debug("evicted segments", "count", len(victims))
	}
}
