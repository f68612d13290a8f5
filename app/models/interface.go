package models

import "context"

// Embedder is the handle to a text-embedding model. The pipeline owns
// one instance and passes it into every stage that needs vectors, so
// tests can substitute a stub without touching process-wide state.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	MaxSequenceLength() int
}
