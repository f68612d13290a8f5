package vectors

import (
	"context"

	"FilingFlow/app/embedder"
)

const DefaultUpsertBatch = 100

// Range bounds a numeric payload field, inclusive on both ends when
// set.
type Range struct {
	Gte *float64
	Lte *float64
}

// Filters restrict a search to points whose payload satisfies every
// predicate: exact match, set membership and numeric range, combined
// conjunctively.
type Filters struct {
	Match map[string]any
	AnyOf map[string][]any
	Range map[string]Range
}

func (f Filters) Empty() bool {
	return len(f.Match) == 0 && len(f.AnyOf) == 0 && len(f.Range) == 0
}

// SearchResult is one scored point, payload only; vectors are never
// returned.
type SearchResult struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// Store is the vector-storage backend. EnsureCollection is
// create-if-absent, destructive recreate on dimension mismatch,
// no-op otherwise. Upsert writes in fixed-size sequential batches and
// reports how many points were committed when a batch fails; the
// remaining batches are not attempted.
type Store interface {
	EnsureCollection(ctx context.Context, name string, dim int) error
	Upsert(ctx context.Context, name string, chunks []embedder.EmbeddedChunk, batchSize int) (int, error)
	Search(ctx context.Context, name string, vector []float32, filters Filters, limit int) ([]SearchResult, error)
	Count(ctx context.Context, name string) (uint64, error)
	Close() error
}
