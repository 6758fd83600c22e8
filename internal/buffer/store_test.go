package buffer

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeSegment creates a real backing file so eviction has something to unlink.
func writeSegment(t *testing.T, dir string, ts time.Time) Segment {
	t.Helper()
	path := filepath.Join(dir, ts.Format("150405.000")+".mp4")
	if err := os.WriteFile(path, []byte("chunk"), 0o644); err != nil {
		t.Fatal(err)
	}
	return Segment{Timestamp: ts, Path: path, Duration: time.Second}
}

func TestEvictCountBound(t *testing.T) {
	dir := t.TempDir()
	base := time.Now()

	store := NewStore(time.Hour, 5, nil)
	var all []Segment
	for i := 0; i < 8; i++ {
		seg := writeSegment(t, dir, base.Add(time.Duration(i)*time.Second))
		all = append(all, seg)
		store.Append(seg)
	}
	store.Evict()

	snap := store.Snapshot()
	if len(snap) != 5 {
		t.Fatalf("store holds %d segments, want 5", len(snap))
	}
	// Segments t=3..7 remain, t=0..2 are gone along with their files.
	for i, seg := range snap {
		if !seg.Timestamp.Equal(all[i+3].Timestamp) {
			t.Errorf("segment %d = %v, want %v", i, seg.Timestamp, all[i+3].Timestamp)
		}
	}
	for _, seg := range all[:3] {
		if _, err := os.Stat(seg.Path); !os.IsNotExist(err) {
			t.Errorf("evicted file %s still exists", seg.Path)
		}
	}
	for _, seg := range all[3:] {
		if _, err := os.Stat(seg.Path); err != nil {
			t.Errorf("kept file %s missing: %v", seg.Path, err)
		}
	}
}

func TestEvictAgeBound(t *testing.T) {
	dir := t.TempDir()
	base := time.Now()

	store := NewStore(10*time.Second, 1000, nil)
	store.clock = func() time.Time { return base.Add(30 * time.Second) }

	old := writeSegment(t, dir, base)                      // 30s old
	fresh := writeSegment(t, dir, base.Add(25*time.Second)) // 5s old
	store.Append(old)
	store.Append(fresh)
	store.Evict()

	snap := store.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("store holds %d segments, want 1", len(snap))
	}
	if !snap[0].Timestamp.Equal(fresh.Timestamp) {
		t.Errorf("kept segment %v, want %v", snap[0].Timestamp, fresh.Timestamp)
	}
	if _, err := os.Stat(old.Path); !os.IsNotExist(err) {
		t.Errorf("aged-out file %s still exists", old.Path)
	}
}

func TestEvictRunsPeriodicallyOnAppend(t *testing.T) {
	dir := t.TempDir()
	base := time.Now()

	store := NewStore(time.Hour, 5, nil)
	for i := 0; i < evictEvery; i++ {
		store.Append(writeSegment(t, dir, base.Add(time.Duration(i)*time.Second)))
	}
	// The evictEvery-th append triggers the check without an explicit Evict.
	if got := store.Len(); got != 5 {
		t.Fatalf("store holds %d segments after periodic eviction, want 5", got)
	}
}

func TestEvictMissingFileNotFatal(t *testing.T) {
	dir := t.TempDir()
	base := time.Now()

	store := NewStore(time.Hour, 1, nil)
	gone := writeSegment(t, dir, base)
	if err := os.Remove(gone.Path); err != nil {
		t.Fatal(err)
	}
	store.Append(gone)
	store.Append(writeSegment(t, dir, base.Add(time.Second)))
	store.Evict()

	if got := store.Len(); got != 1 {
		t.Fatalf("store holds %d segments, want 1 (entry dropped despite missing file)", got)
	}
}

func TestSnapshotIsSortedCopy(t *testing.T) {
	dir := t.TempDir()
	base := time.Now()

	store := NewStore(time.Hour, 100, nil)
	// Insert out of order: Snapshot must still come back chronological.
	for _, offset := range []int{3, 1, 2, 0} {
		store.Append(writeSegment(t, dir, base.Add(time.Duration(offset)*time.Second)))
	}

	snap := store.Snapshot()
	for i := 1; i < len(snap); i++ {
		if snap[i].Timestamp.Before(snap[i-1].Timestamp) {
			t.Fatalf("snapshot out of order at %d: %v before %v", i, snap[i].Timestamp, snap[i-1].Timestamp)
		}
	}

	// Mutating the snapshot must not affect the store.
	snap[0].Path = "clobbered"
	if store.Snapshot()[0].Path == "clobbered" {
		t.Fatal("snapshot shares backing array with store index")
	}
}
