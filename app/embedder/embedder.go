package embedder

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"FilingFlow/app/chunker"
	"FilingFlow/app/models"
)

const DefaultBatchSize = 16

// EmbeddedChunk is a chunk plus its unit-length embedding vector.
type EmbeddedChunk struct {
	chunker.Chunk
	Embedding []float32 `json:"embedding"`
	Dim       int       `json:"embedding_dim"`
}

// Embedder turns chunks into embedded chunks in fixed-size batches.
// Batching bounds peak memory, not concurrency; batches run strictly
// in order and output order matches input order one-to-one.
type Embedder struct {
	model     models.Embedder
	batchSize int
}

func New(model models.Embedder, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{model: model, batchSize: batchSize}
}

// Embed embeds every chunk. Chunks whose estimated token count
// (whitespace words) exceeds the model's input window are kept and
// logged; the model truncates silently rather than failing. All
// vectors are normalized to unit length so dot product and cosine are
// interchangeable downstream. The run's dimension is read from the
// first vector and enforced on the rest.
func (e *Embedder) Embed(ctx context.Context, chunks []chunker.Chunk) ([]EmbeddedChunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	maxSeq := e.model.MaxSequenceLength()
	truncated := 0
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		if estimated := len(strings.Fields(ch.Text)); maxSeq > 0 && estimated > maxSeq {
			truncated++
			log.Printf("⚠️ Chunk %s has ~%d tokens, will be truncated", ch.ID, estimated)
		}
		texts[i] = ch.Text
	}
	if truncated > 0 {
		log.Printf("⚠️ %d/%d chunks exceed the token limit", truncated, len(chunks))
	}

	log.Printf("🧠 Generating embeddings for %d chunks (batch_size=%d)", len(texts), e.batchSize)

	dim := 0
	out := make([]EmbeddedChunk, 0, len(chunks))
	for start := 0; start < len(chunks); start += e.batchSize {
		end := start + e.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		vectors, err := e.model.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch starting at chunk %d: %w", start, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embed batch starting at chunk %d: got %d vectors for %d texts", start, len(vectors), end-start)
		}

		for i, vec := range vectors {
			if dim == 0 {
				dim = len(vec)
			}
			if len(vec) != dim {
				return nil, fmt.Errorf("chunk %s: vector dimension %d, expected %d", chunks[start+i].ID, len(vec), dim)
			}
			out = append(out, EmbeddedChunk{
				Chunk:     chunks[start+i],
				Embedding: Normalize(vec),
				Dim:       dim,
			})
		}
	}

	log.Printf("✅ Generated %d embeddings of dimension %d", len(out), dim)
	return out, nil
}

// Normalize scales a vector to unit length. Zero vectors come back
// unchanged.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
