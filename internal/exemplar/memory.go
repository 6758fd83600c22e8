// Package exemplar implements the labeled reference memory used for
// nearest-neighbor audio classification. The memory is a msgpack file of
// (embedding, label) pairs loaded once at startup and rewritten only by an
// explicit Save.
package exemplar

import (
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// NormalLabel is the label for windows that match nothing in memory.
// Entries persisted without a label are normalized to it at load time.
const NormalLabel = "normal"

// Exemplar pairs one embedding vector with its event label.
type Exemplar struct {
	Vector []float32 `msgpack:"vector"`
	Label  string    `msgpack:"label"`
}

// Memory holds the exemplar set. Safe for concurrent use: the hot path
// only reads, Add/Save are rare explicit operations.
type Memory struct {
	path string

	mu        sync.RWMutex
	exemplars []Exemplar
}

// Load reads the memory file at path. A missing file yields an empty
// memory, not an error. Empty labels are normalized to NormalLabel here so
// comparison code never has to deal with them.
func Load(path string) (*Memory, error) {
	m := &Memory{path: path}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("exemplar: read %s: %w", path, err)
	}

	var exemplars []Exemplar
	if err := msgpack.Unmarshal(raw, &exemplars); err != nil {
		return nil, fmt.Errorf("exemplar: decode %s: %w", path, err)
	}
	for i := range exemplars {
		if exemplars[i].Label == "" {
			exemplars[i].Label = NormalLabel
		}
	}
	m.exemplars = exemplars
	return m, nil
}

// Len returns the number of stored exemplars.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.exemplars)
}

// Add appends a labeled embedding. Not used on the classification hot
// path; callers persist with Save when done.
func (m *Memory) Add(vector []float32, label string) {
	if label == "" {
		label = NormalLabel
	}
	cp := make([]float32, len(vector))
	copy(cp, vector)

	m.mu.Lock()
	m.exemplars = append(m.exemplars, Exemplar{Vector: cp, Label: label})
	m.mu.Unlock()
}

// Save rewrites the memory file.
func (m *Memory) Save() error {
	m.mu.RLock()
	raw, err := msgpack.Marshal(m.exemplars)
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("exemplar: encode: %w", err)
	}
	if err := os.WriteFile(m.path, raw, 0o644); err != nil {
		return fmt.Errorf("exemplar: write %s: %w", m.path, err)
	}
	return nil
}

// Classify returns the nearest neighbor's label when its cosine similarity
// reaches threshold, otherwise NormalLabel. The similarity of the nearest
// neighbor is returned either way. An empty memory classifies everything
// as (NormalLabel, 0).
func (m *Memory) Classify(vector []float32, threshold float64) (string, float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.exemplars) == 0 {
		return NormalLabel, 0.0
	}

	best := -1.0
	label := NormalLabel
	for _, ex := range m.exemplars {
		if sim := CosineSimilarity(vector, ex.Vector); sim > best {
			best = sim
			label = ex.Label
		}
	}
	if best < threshold {
		return NormalLabel, best
	}
	return label, best
}

// CosineSimilarity returns the cosine of the angle between a and b,
// clamped to [-1, 1]. Mismatched dimensions or a zero-norm vector yield 0
// (no direction, no similarity).
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim
}
