package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MemoryConfig holds the settings for constructing a MemoryIndex.
type MemoryConfig struct {
	// Dimension is the required length of every stored vector.
	Dimension int

	// ModelVersion identifies the embedding model that produced the vectors.
	// A snapshot written by a different version is rejected at load time.
	ModelVersion string

	// SnapshotPath is the on-disk snapshot file. If empty, the index is
	// purely in-memory and does not survive restarts.
	SnapshotPath string
}

// entry is one stored vector with its metadata.
type entry struct {
	Vector   []float32         `json:"vector"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// snapshot is the on-disk representation of a MemoryIndex. JSON encodes
// float32 values with their shortest round-tripping representation, so a
// reloaded index answers queries bit-identically to the one that wrote it.
type snapshot struct {
	Dimension    int              `json:"dimension"`
	ModelVersion string           `json:"model_version"`
	Entries      map[string]entry `json:"entries"`
}

// MemoryIndex is an exact brute-force cosine-similarity index. It is the
// default backend: at personal-catalog scale (thousands to low millions of
// entries) a linear scan is fast enough and gives exact recall.
//
// Concurrency: queries take a read lock and mutations a write lock, so every
// query observes a consistent index state and upserts/deletes are mutually
// exclusive with in-flight queries.
type MemoryIndex struct {
	mu      sync.RWMutex
	cfg     MemoryConfig
	entries map[string]entry
}

// NewMemoryIndex constructs a MemoryIndex, loading the snapshot file if one
// exists at cfg.SnapshotPath. A snapshot with a different dimension or model
// version fails with ErrDimensionMismatch / ErrModelVersionMismatch.
func NewMemoryIndex(cfg MemoryConfig) (*MemoryIndex, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("vectorindex: dimension must be positive, got %d", cfg.Dimension)
	}

	idx := &MemoryIndex{
		cfg:     cfg,
		entries: make(map[string]entry),
	}

	if cfg.SnapshotPath != "" {
		if err := idx.loadSnapshot(); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

// Upsert inserts or replaces the vector for id.
func (m *MemoryIndex) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	if len(vector) != m.cfg.Dimension {
		return fmt.Errorf("%w: got %d, index configured for %d", ErrDimensionMismatch, len(vector), m.cfg.Dimension)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy so the caller cannot mutate stored state afterwards.
	vec := make([]float32, len(vector))
	copy(vec, vector)
	var meta map[string]string
	if len(metadata) > 0 {
		meta = make(map[string]string, len(metadata))
		for k, v := range metadata {
			meta[k] = v
		}
	}
	m.entries[id] = entry{Vector: vec, Metadata: meta}

	return m.persistLocked()
}

// Delete removes the vector for id. Absent ids are a no-op.
func (m *MemoryIndex) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return nil
	}
	delete(m.entries, id)

	return m.persistLocked()
}

// Query returns the top-k closest entries by cosine similarity.
func (m *MemoryIndex) Query(ctx context.Context, vector []float32, k int, filter Filter) ([]Hit, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if len(vector) != m.cfg.Dimension {
		return nil, fmt.Errorf("%w: query vector has %d, index configured for %d", ErrDimensionMismatch, len(vector), m.cfg.Dimension)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return nil, ErrEmptyIndex
	}

	hits := make([]Hit, 0, len(m.entries))
	for id, e := range m.entries {
		if !filter.Matches(e.Metadata) {
			continue
		}
		hits = append(hits, Hit{
			ID:       id,
			Score:    cosine(vector, e.Vector),
			Metadata: e.Metadata,
		})
	}

	// Descending score; equal scores break by ascending id so results are
	// deterministic across runs and across snapshot reloads.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Size returns the current entry count.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// ModelVersion returns the configured embedding model version.
func (m *MemoryIndex) ModelVersion() string {
	return m.cfg.ModelVersion
}

// Close is a no-op for the memory backend; every mutation is already
// persisted synchronously.
func (m *MemoryIndex) Close() error {
	return nil
}

// loadSnapshot restores the index from cfg.SnapshotPath. A missing file is
// fine (fresh index); a snapshot from a different configuration is not.
func (m *MemoryIndex) loadSnapshot() error {
	data, err := os.ReadFile(m.cfg.SnapshotPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("vectorindex: read snapshot %s: %w", m.cfg.SnapshotPath, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("vectorindex: parse snapshot %s: %w", m.cfg.SnapshotPath, err)
	}

	if snap.Dimension != m.cfg.Dimension {
		return fmt.Errorf("%w: snapshot has dimension %d, index configured for %d",
			ErrDimensionMismatch, snap.Dimension, m.cfg.Dimension)
	}
	if snap.ModelVersion != m.cfg.ModelVersion {
		return fmt.Errorf("%w: snapshot written by %q, index configured for %q",
			ErrModelVersionMismatch, snap.ModelVersion, m.cfg.ModelVersion)
	}

	if snap.Entries != nil {
		m.entries = snap.Entries
	}
	return nil
}

// persistLocked writes the snapshot atomically (temp file + rename) so a
// crash mid-write never leaves a corrupt snapshot. Caller must hold mu.
func (m *MemoryIndex) persistLocked() error {
	if m.cfg.SnapshotPath == "" {
		return nil
	}

	snap := snapshot{
		Dimension:    m.cfg.Dimension,
		ModelVersion: m.cfg.ModelVersion,
		Entries:      m.entries,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("vectorindex: encode snapshot: %w", err)
	}

	dir := filepath.Dir(m.cfg.SnapshotPath)
	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("vectorindex: create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("vectorindex: write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("vectorindex: close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpName, m.cfg.SnapshotPath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("vectorindex: replace snapshot: %w", err)
	}
	return nil
}

// cosine returns the cosine similarity of a and b. Accumulation happens in
// float64 to keep the result stable regardless of summation order.
func cosine(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
