package vectors

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"FilingFlow/app/embedder"
)

var _ Store = &QdrantStore{}

// chunk ids are stable, so the same chunk always maps to the same
// point and re-runs overwrite rather than duplicate.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("filingflow/chunk"))

type QdrantStore struct {
	client *qdrant.Client
	onDisk bool
}

func NewQdrantStore(host string, port int, onDisk bool) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}
	return &QdrantStore{client: client, onDisk: onDisk}, nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// PointID derives the deterministic UUIDv5 point id for a chunk id.
func PointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

func (s *QdrantStore) EnsureCollection(ctx context.Context, name string, dim int) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", name, err)
	}

	if exists {
		info, err := s.client.GetCollectionInfo(ctx, name)
		if err != nil {
			return fmt.Errorf("inspect collection %s: %w", name, err)
		}
		existing := int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize())
		if existing == dim {
			log.Printf("♻️ Keeping collection %s (%d points, dimensions match)", name, info.GetPointsCount())
			return nil
		}

		log.Printf("⚠️ Dimension mismatch on %s! Existing: %d, New: %d — deleting collection", name, existing, dim)
		if err = s.client.DeleteCollection(ctx, name); err != nil {
			return fmt.Errorf("delete collection %s: %w", name, err)
		}
	}

	if err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dim),
					Distance: qdrant.Distance_Cosine,
					OnDisk:   qdrant.PtrOf(s.onDisk),
				},
			},
		},
	}); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	log.Printf("🆕 Created collection '%s' with %d dimensions", name, dim)
	return nil
}

// Upsert writes chunks in sequential batches. On failure it stops and
// returns the number of points already committed; those stay in the
// store, there is no rollback.
func (s *QdrantStore) Upsert(ctx context.Context, name string, chunks []embedder.EmbeddedChunk, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultUpsertBatch
	}

	log.Printf("📦 Preparing to upsert %d chunks to %s...", len(chunks), name)

	committed := 0
	batchNum := 0
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batchNum++

		batch := chunks[start:end]
		points := make([]*qdrant.PointStruct, len(batch))
		for i, ch := range batch {
			points[i] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(PointID(ch.ID)),
				Vectors: qdrant.NewVectors(ch.Embedding...),
				Payload: qdrant.NewValueMap(chunkPayload(ch)),
			}
		}

		if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: name,
			Points:         points,
		}); err != nil {
			return committed, fmt.Errorf("upsert batch %d (%d points committed): %w", batchNum, committed, err)
		}
		committed += len(points)

		if batchNum%10 == 0 {
			log.Printf("  Upserted %d/%d chunks...", committed, len(chunks))
		}
	}

	return committed, nil
}

func chunkPayload(ch embedder.EmbeddedChunk) map[string]any {
	return map[string]any{
		"text":         ch.Text,
		"docID":        ch.DocID,
		"section":      int64(ch.Section),
		"section_name": ch.SectionName,
		"company":      ch.Company,
		"reportDate":   ch.ReportDate,
		"cik":          ch.CIK,
		"priority":     ch.Priority,
		"chunk_id":     ch.ID,
		"char_count":   int64(ch.CharCount),
		"n_sentences":  int64(ch.Sentences),
		"is_split":     ch.Split,
	}
}

func (s *QdrantStore) Search(ctx context.Context, name string, vector []float32, filters Filters, limit int) ([]SearchResult, error) {
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Filter:         buildFilter(filters),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}

	results := make([]SearchResult, 0, len(resp))
	for _, point := range resp {
		payload := make(map[string]any, len(point.Payload))
		for key, value := range point.Payload {
			payload[key] = convertValue(value)
		}
		results = append(results, SearchResult{
			ID:      pointIDString(point.Id),
			Score:   point.Score,
			Payload: payload,
		})
	}
	return results, nil
}

func (s *QdrantStore) Count(ctx context.Context, name string) (uint64, error) {
	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("inspect collection %s: %w", name, err)
	}
	return info.GetPointsCount(), nil
}

// buildFilter translates Filters into qdrant must-conditions. Keys are
// walked in sorted order to keep the condition list stable.
func buildFilter(f Filters) *qdrant.Filter {
	if f.Empty() {
		return nil
	}

	var must []*qdrant.Condition

	for _, key := range sortedKeys(f.Match) {
		switch v := f.Match[key].(type) {
		case string:
			must = append(must, qdrant.NewMatch(key, v))
		case int:
			must = append(must, qdrant.NewMatchInt(key, int64(v)))
		case int64:
			must = append(must, qdrant.NewMatchInt(key, v))
		case bool:
			must = append(must, qdrant.NewMatchBool(key, v))
		default:
			must = append(must, qdrant.NewMatch(key, fmt.Sprintf("%v", v)))
		}
	}

	for _, key := range sortedKeys(f.AnyOf) {
		values := f.AnyOf[key]
		if ints, ok := asInts(values); ok {
			must = append(must, qdrant.NewMatchInts(key, ints...))
			continue
		}
		keywords := make([]string, len(values))
		for i, v := range values {
			keywords[i] = fmt.Sprintf("%v", v)
		}
		must = append(must, qdrant.NewMatchKeywords(key, keywords...))
	}

	for _, key := range sortedKeys(f.Range) {
		bounds := f.Range[key]
		must = append(must, qdrant.NewRange(key, &qdrant.Range{
			Gte: bounds.Gte,
			Lte: bounds.Lte,
		}))
	}

	return &qdrant.Filter{Must: must}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func asInts(values []any) ([]int64, bool) {
	ints := make([]int64, len(values))
	for i, v := range values {
		switch n := v.(type) {
		case int:
			ints[i] = int64(n)
		case int64:
			ints[i] = n
		default:
			return nil, false
		}
	}
	return ints, len(ints) > 0
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	switch x := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return x.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", x.Num)
	}
	return ""
}

func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_ListValue:
		out := make([]any, len(val.ListValue.Values))
		for i, lv := range val.ListValue.Values {
			out[i] = convertValue(lv)
		}
		return out
	case *qdrant.Value_StructValue:
		out := make(map[string]any)
		for k, nv := range val.StructValue.Fields {
			out[k] = convertValue(nv)
		}
		return out
	}
	return nil
}
