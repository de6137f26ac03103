package vectorindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Supported index backends.
const (
	BackendMemory = "memory"
	BackendQdrant = "qdrant"
)

// DefaultSnapshotPath returns the default snapshot location for the memory
// backend, ~/.bookmind/index.json, creating the directory if needed.
func DefaultSnapshotPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("vectorindex: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".bookmind")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("vectorindex: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "index.json"), nil
}

// NewFromEnv constructs the Index selected by INDEX_BACKEND (default: memory).
// dimension and modelVersion come from the embedder so the index always
// matches the model producing its vectors.
//
// Backend-specific configuration:
//
//   - memory: INDEX_PATH — snapshot file (default: ~/.bookmind/index.json)
//   - qdrant: QDRANT_HOST, QDRANT_PORT, QDRANT_COLLECTION, QDRANT_API_KEY,
//     QDRANT_TLS
func NewFromEnv(ctx context.Context, dimension int, modelVersion string) (Index, error) {
	backend := os.Getenv("INDEX_BACKEND")
	if backend == "" {
		backend = BackendMemory
	}

	switch backend {
	case BackendMemory:
		path := os.Getenv("INDEX_PATH")
		if path == "" {
			var err error
			path, err = DefaultSnapshotPath()
			if err != nil {
				return nil, err
			}
		}
		return NewMemoryIndex(MemoryConfig{
			Dimension:    dimension,
			ModelVersion: modelVersion,
			SnapshotPath: path,
		})

	case BackendQdrant:
		port := 0
		if v := os.Getenv("QDRANT_PORT"); v != "" {
			p, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("vectorindex: invalid QDRANT_PORT %q: %w", v, err)
			}
			port = p
		}
		collection := os.Getenv("QDRANT_COLLECTION")
		if collection == "" {
			collection = "bookmind_books"
		}
		return NewQdrantIndex(ctx, &QdrantConfig{
			Host:         os.Getenv("QDRANT_HOST"),
			Port:         port,
			Collection:   collection,
			Dimension:    dimension,
			ModelVersion: modelVersion,
			APIKey:       os.Getenv("QDRANT_API_KEY"),
			UseTLS:       os.Getenv("QDRANT_TLS") == "true",
		})

	default:
		return nil, fmt.Errorf("vectorindex: unknown backend %q — valid values: %s, %s",
			backend, BackendMemory, BackendQdrant)
	}
}
