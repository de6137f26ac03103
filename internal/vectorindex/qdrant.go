package vectorindex

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig holds connection parameters for a Qdrant-backed index.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// Dimension is the dimensionality of the embeddings stored in this
	// collection.
	Dimension int

	// ModelVersion identifies the embedding model that produced the vectors.
	ModelVersion string

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantIndex implements Index backed by a Qdrant instance. Book ids (ISBNs
// or slugs) are not UUIDs, so each id is mapped to a deterministic UUIDv5
// point id and the original id is kept in the point payload.
type QdrantIndex struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this index.
	cfg *QdrantConfig
}

// payload key carrying the original book id.
const payloadIDKey = "book_id"

// NewQdrantIndex creates a QdrantIndex, ensuring the target collection exists
// (creating it if necessary) and that its vector size matches cfg.Dimension.
func NewQdrantIndex(ctx context.Context, cfg *QdrantConfig) (*QdrantIndex, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("vectorindex: qdrant: dimension must be positive, got %d", cfg.Dimension)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: qdrant: failed to create client: %w", err)
	}

	idx := &QdrantIndex{client: client, cfg: cfg}
	if err := idx.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return idx, nil
}

// ensureCollection creates the collection if it does not already exist, and
// verifies an existing collection was built for the configured dimension.
func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.cfg.Collection)
	if err != nil {
		return fmt.Errorf("vectorindex: qdrant: failed to check collection existence: %w", err)
	}

	if exists {
		info, err := q.client.GetCollectionInfo(ctx, q.cfg.Collection)
		if err != nil {
			return fmt.Errorf("vectorindex: qdrant: failed to inspect collection %q: %w", q.cfg.Collection, err)
		}
		if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
			if got := int(params.GetSize()); got != q.cfg.Dimension {
				return fmt.Errorf("%w: collection %q has size %d, index configured for %d",
					ErrDimensionMismatch, q.cfg.Collection, got, q.cfg.Dimension)
			}
		}
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.cfg.Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("vectorindex: qdrant: failed to create collection %q: %w", q.cfg.Collection, err)
	}

	return nil
}

// pointID maps a book id to a deterministic UUIDv5 point id, so repeated
// upserts of the same book replace the same point.
func pointID(id string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String())
}

// Upsert inserts or replaces the vector for id.
func (q *QdrantIndex) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	if len(vector) != q.cfg.Dimension {
		return fmt.Errorf("%w: got %d, index configured for %d", ErrDimensionMismatch, len(vector), q.cfg.Dimension)
	}

	payload := map[string]interface{}{
		payloadIDKey: id,
	}
	for k, v := range metadata {
		payload[k] = v
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.Collection,
		Points: []*qdrant.PointStruct{{
			Id:      pointID(id),
			Vectors: qdrant.NewVectors(vector...),
			Payload: qdrant.NewValueMap(payload),
		}},
	})
	if err != nil {
		return fmt.Errorf("vectorindex: qdrant: upsert %s: %w", id, err)
	}
	return nil
}

// Delete removes the vector for id. Absent ids are a no-op.
func (q *QdrantIndex) Delete(ctx context.Context, id string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.cfg.Collection,
		Points:         qdrant.NewPointsSelector(pointID(id)),
	})
	if err != nil {
		return fmt.Errorf("vectorindex: qdrant: delete %s: %w", id, err)
	}
	return nil
}

// Query returns the top-k closest entries by cosine similarity.
func (q *QdrantIndex) Query(ctx context.Context, vector []float32, k int, filter Filter) ([]Hit, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if len(vector) != q.cfg.Dimension {
		return nil, fmt.Errorf("%w: query vector has %d, index configured for %d", ErrDimensionMismatch, len(vector), q.cfg.Dimension)
	}

	count, err := q.count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrEmptyIndex
	}

	limit := uint64(k)
	query := &qdrant.QueryPoints{
		CollectionName: q.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if len(filter) > 0 {
		conditions := make([]*qdrant.Condition, 0, len(filter))
		for key, value := range filter {
			conditions = append(conditions, qdrant.NewMatch(key, value))
		}
		query.Filter = &qdrant.Filter{Must: conditions}
	}

	results, err := q.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: qdrant: query failed: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hit := Hit{Score: r.Score}
		if p := r.Payload; p != nil {
			for key, value := range p {
				if key == payloadIDKey {
					hit.ID = value.GetStringValue()
					continue
				}
				if hit.Metadata == nil {
					hit.Metadata = make(map[string]string)
				}
				hit.Metadata[key] = value.GetStringValue()
			}
		}
		hits = append(hits, hit)
	}

	// Qdrant orders by score but leaves ties unspecified; re-sort so ties
	// break by ascending id, matching the memory backend.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	return hits, nil
}

// count returns the exact number of points in the collection.
func (q *QdrantIndex) count(ctx context.Context) (int, error) {
	exact := true
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.cfg.Collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("vectorindex: qdrant: count failed: %w", err)
	}
	return int(n), nil
}

// Size returns the current entry count. It issues a remote count; a failure
// reports zero, so callers needing the error should query instead.
func (q *QdrantIndex) Size() int {
	n, err := q.count(context.Background())
	if err != nil {
		return 0
	}
	return n
}

// Client exposes the underlying gRPC client for readiness probes.
func (q *QdrantIndex) Client() *qdrant.Client {
	return q.client
}

// ModelVersion returns the configured embedding model version.
func (q *QdrantIndex) ModelVersion() string {
	return q.cfg.ModelVersion
}

// Close closes the underlying Qdrant gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}
