package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"FilingFlow/app/chunker"
	"FilingFlow/app/configs"
	"FilingFlow/app/embedder"
	"FilingFlow/app/ingest"
	"FilingFlow/app/models"
	"FilingFlow/app/notify"
	"FilingFlow/app/storage"
	"FilingFlow/app/utils"
	"FilingFlow/app/vectors"
)

// Stage names, in execution order.
const (
	StageExtract  = "extract"
	StageChunk    = "chunk"
	StageEmbed    = "embed"
	StageStore    = "store"
	StageValidate = "validate"
)

var Stages = []string{StageExtract, StageChunk, StageEmbed, StageStore, StageValidate}

// Pipeline sequences extract → chunk → embed → store → validate,
// passing intermediate artifacts through the staging directory. Every
// stage runs to completion before the next begins; there is no
// overlap within a run.
type Pipeline struct {
	cfg      *configs.Config
	model    models.Embedder
	store    vectors.Store
	ledger   storage.Interface
	notifier notify.Notifier

	runID string
}

func New(cfg *configs.Config, model models.Embedder, store vectors.Store, ledger storage.Interface, notifier notify.Notifier) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		model:    model,
		store:    store,
		ledger:   ledger,
		notifier: notifier,
	}
}

// Run executes the pipeline from the named stage onward (empty means
// from the beginning). Resuming relies on the staged artifact of the
// previous run still being present.
func (p *Pipeline) Run(ctx context.Context, fromStage string) error {
	start := stageIndex(fromStage)
	if start < 0 {
		return fmt.Errorf("unknown stage %q (valid: %v)", fromStage, Stages)
	}

	p.runID = uuid.New().String()
	log.Printf("🚀 Pipeline run %s starting at stage %s", p.runID, Stages[start])

	if p.ledger != nil {
		if err := p.ledger.StartRun(ctx, storage.Run{
			ID:        p.runID,
			Status:    storage.RunStatusRunning,
			StartedAt: time.Now(),
		}); err != nil {
			return fmt.Errorf("record run start: %w", err)
		}
	}

	stageFuncs := map[string]func(context.Context) error{
		StageExtract:  p.extract,
		StageChunk:    p.chunk,
		StageEmbed:    p.embed,
		StageStore:    p.storeVectors,
		StageValidate: p.validate,
	}

	for _, stage := range Stages[start:] {
		log.Printf("▶️ Stage %s", stage)
		if err := stageFuncs[stage](ctx); err != nil {
			p.finish(ctx, storage.RunStatusFailed, fmt.Sprintf("Pipeline run %s failed at stage %s: %v", p.runID, stage, err))
			return fmt.Errorf("stage %s: %w", stage, err)
		}
	}

	p.finish(ctx, storage.RunStatusSuccess, fmt.Sprintf("Pipeline run %s completed: collection %q is searchable", p.runID, p.cfg.Qdrant.Collection))
	return nil
}

func (p *Pipeline) finish(ctx context.Context, status, message string) {
	if p.ledger != nil {
		if err := p.ledger.FinishRun(ctx, p.runID, status); err != nil {
			log.Printf("⚠️ Error recording run end: %v", err)
		}
	}
	if p.notifier != nil {
		if err := p.notifier.Notify(message); err != nil {
			log.Printf("⚠️ Notification failed: %v", err)
		}
	}
	log.Printf("🏁 Run %s: %s", p.runID, status)
}

func (p *Pipeline) artifact(name string) string {
	return filepath.Join(p.cfg.Pipeline.StagingDir, name)
}

func (p *Pipeline) pushMetric(ctx context.Context, stage, key string, value float64) {
	log.Printf("📏 Metric: %s = %v", key, value)
	if p.ledger == nil {
		return
	}
	if err := p.ledger.SaveMetric(ctx, storage.Metric{
		RunID: p.runID,
		Stage: stage,
		Key:   key,
		Value: value,
	}); err != nil {
		log.Printf("⚠️ Error saving metric %s: %v", key, err)
	}
}

func (p *Pipeline) extract(ctx context.Context) error {
	rows, err := ingest.LoadRows(p.cfg.Data.Path)
	if err != nil {
		return err
	}
	log.Printf("📥 Loaded %d total sentences", len(rows))

	ingest.Enrich(rows)
	rows = ingest.Filter(rows, p.cfg.Data.MinTokens)
	rows = ingest.Sample(rows, p.cfg.Data.SampleSize, p.cfg.Data.SampleSeed)

	if err = saveJSON(p.artifact(sentencesArtifact), rows); err != nil {
		return err
	}
	p.pushMetric(ctx, StageExtract, "row_count", float64(len(rows)))
	return nil
}

func (p *Pipeline) chunk(ctx context.Context) error {
	rows, err := loadJSON[[]ingest.SentenceRow](p.artifact(sentencesArtifact))
	if err != nil {
		return err
	}

	c := chunker.New(p.cfg.Chunking.Window, p.cfg.Chunking.Stride, p.cfg.Chunking.MaxChars)
	chunks := c.Chunk(rows)

	if err = saveJSON(p.artifact(chunksArtifact), chunks); err != nil {
		return err
	}
	p.pushMetric(ctx, StageChunk, "chunk_count", float64(len(chunks)))
	return nil
}

func (p *Pipeline) embed(ctx context.Context) error {
	chunks, err := loadJSON[[]chunker.Chunk](p.artifact(chunksArtifact))
	if err != nil {
		return err
	}

	e := embedder.New(p.model, p.cfg.Embedding.BatchSize)
	embedded, err := e.Embed(ctx, chunks)
	if err != nil {
		return err
	}

	if err = saveJSON(p.artifact(embeddedArtifact), embedded); err != nil {
		return err
	}
	p.pushMetric(ctx, StageEmbed, "embeddings_created", float64(len(embedded)))
	if len(embedded) > 0 {
		p.pushMetric(ctx, StageEmbed, "embedding_dim", float64(embedded[0].Dim))
	}
	return nil
}

func (p *Pipeline) storeVectors(ctx context.Context) error {
	embedded, err := loadJSON[[]embedder.EmbeddedChunk](p.artifact(embeddedArtifact))
	if err != nil {
		return err
	}
	if len(embedded) == 0 {
		return fmt.Errorf("no embedded chunks staged, nothing to store")
	}

	collection := p.cfg.Qdrant.Collection
	if err = p.store.EnsureCollection(ctx, collection, embedded[0].Dim); err != nil {
		return err
	}

	committed, err := p.store.Upsert(ctx, collection, embedded, p.cfg.Qdrant.UpsertBatchSize)
	if err != nil {
		return err
	}
	log.Printf("💾 Collection '%s' received %d vectors", collection, committed)
	p.pushMetric(ctx, StageStore, "vectors_stored", float64(committed))
	return nil
}

func (p *Pipeline) validate(ctx context.Context) error {
	results, err := p.Query(ctx, p.cfg.Pipeline.ValidationQuery, vectors.Filters{}, p.cfg.Pipeline.ValidationLimit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no search results - pipeline failed")
	}

	for i, r := range results {
		log.Printf("  %d. [Score: %.4f] %v | %v", i+1, r.Score, r.Payload["company"], r.Payload["section_name"])
	}
	p.pushMetric(ctx, StageValidate, "validation_results", float64(len(results)))
	return nil
}

// Query embeds the text with the pipeline's model and searches the
// configured collection. Used by the validation stage and the search
// command.
func (p *Pipeline) Query(ctx context.Context, text string, filters vectors.Filters, limit int) ([]vectors.SearchResult, error) {
	embeddings, err := p.model.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embed query: no vector returned")
	}
	queryVector := embedder.Normalize(embeddings[0])

	return p.store.Search(ctx, p.cfg.Qdrant.Collection, queryVector, filters, limit)
}

// Report renders the chunk distribution tree from the staged chunking
// artifact.
func (p *Pipeline) Report() (string, error) {
	chunks, err := loadJSON[[]chunker.Chunk](p.artifact(chunksArtifact))
	if err != nil {
		return "", err
	}
	return utils.BuildChunkTree(chunks), nil
}

func stageIndex(stage string) int {
	if stage == "" {
		return 0
	}
	for i, s := range Stages {
		if s == stage {
			return i
		}
	}
	return -1
}
