package vectors

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FilingFlow/app/chunker"
	"FilingFlow/app/embedder"
)

func TestPointIDDeterministic(t *testing.T) {
	a := PointID("D1_sec1_chunk0")
	b := PointID("D1_sec1_chunk0")
	assert.Equal(t, a, b)

	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestPointIDDistinct(t *testing.T) {
	ids := map[string]bool{}
	for _, chunkID := range []string{
		"D1_sec1_chunk0",
		"D1_sec1_chunk2",
		"D1_sec1_chunk0_part0",
		"D1_sec1_full",
		"D2_sec1_chunk0",
	} {
		ids[PointID(chunkID)] = true
	}
	assert.Len(t, ids, 5)
}

func TestChunkPayloadCarriesAllFields(t *testing.T) {
	ec := embedder.EmbeddedChunk{
		Chunk: chunker.Chunk{
			ID:          "D1_sec10_chunk4",
			Text:        "some text",
			DocID:       "D1",
			Section:     10,
			SectionName: "Notes to Financials",
			Company:     "ACME Corp",
			ReportDate:  "2023-12-31",
			CIK:         "0000123456",
			Priority:    "highest",
			Sentences:   3,
			CharCount:   9,
			Split:       true,
		},
		Embedding: []float32{0.1, 0.2},
		Dim:       2,
	}

	payload := chunkPayload(ec)
	assert.Equal(t, "some text", payload["text"])
	assert.Equal(t, "D1", payload["docID"])
	assert.Equal(t, int64(10), payload["section"])
	assert.Equal(t, "Notes to Financials", payload["section_name"])
	assert.Equal(t, "ACME Corp", payload["company"])
	assert.Equal(t, "2023-12-31", payload["reportDate"])
	assert.Equal(t, "0000123456", payload["cik"])
	assert.Equal(t, "highest", payload["priority"])
	assert.Equal(t, "D1_sec10_chunk4", payload["chunk_id"])
	assert.Equal(t, int64(9), payload["char_count"])
	assert.Equal(t, int64(3), payload["n_sentences"])
	assert.Equal(t, true, payload["is_split"])
}

func TestBuildFilterEmpty(t *testing.T) {
	assert.Nil(t, buildFilter(Filters{}))
}

func TestBuildFilterConjunction(t *testing.T) {
	gte, lte := 10.0, 2000.0
	f := Filters{
		Match: map[string]any{
			"company":  "ACME Corp",
			"section":  1,
			"is_split": false,
		},
		AnyOf: map[string][]any{
			"priority": {"high", "highest"},
			"section":  {0, 1, 8},
		},
		Range: map[string]Range{
			"char_count": {Gte: &gte, Lte: &lte},
		},
	}

	filter := buildFilter(f)
	require.NotNil(t, filter)
	require.Len(t, filter.Must, 6)

	keys := make([]string, 0, len(filter.Must))
	for _, cond := range filter.Must {
		field := cond.GetField()
		require.NotNil(t, field)
		keys = append(keys, field.GetKey())
	}
	// Match keys sorted, then AnyOf keys sorted, then Range keys.
	assert.Equal(t, []string{"company", "is_split", "section", "priority", "section", "char_count"}, keys)
}

func TestBuildFilterRangeBounds(t *testing.T) {
	gte := 100.0
	filter := buildFilter(Filters{Range: map[string]Range{"char_count": {Gte: &gte}}})
	require.NotNil(t, filter)
	require.Len(t, filter.Must, 1)

	rng := filter.Must[0].GetField().GetRange()
	require.NotNil(t, rng)
	require.NotNil(t, rng.Gte)
	assert.Equal(t, 100.0, *rng.Gte)
	assert.Nil(t, rng.Lte)
}

func TestAsInts(t *testing.T) {
	ints, ok := asInts([]any{1, int64(2), 3})
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2, 3}, ints)

	_, ok = asInts([]any{"high"})
	assert.False(t, ok)

	_, ok = asInts(nil)
	assert.False(t, ok)
}
