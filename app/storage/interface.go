package storage

import (
	"context"
	"time"
)

// Interface is the run ledger: one row per pipeline run, one row per
// emitted metric. The pipeline treats it as an external tracking
// mechanism, not as pipeline state.
type Interface interface {
	StartRun(ctx context.Context, run Run) error
	FinishRun(ctx context.Context, runID, status string) error
	SaveMetric(ctx context.Context, metric Metric) error
	GetMetricsByRunID(ctx context.Context, runID string) ([]Metric, error)
}

type Run struct {
	ID        string    `json:"id" db:"id"`
	Status    string    `json:"status" db:"status"`
	StartedAt time.Time `json:"started_at" db:"started_at"`
}

type Metric struct {
	RunID     string    `json:"run_id" db:"run_id"`
	Stage     string    `json:"stage" db:"stage"`
	Key       string    `json:"key" db:"key"`
	Value     float64   `json:"value" db:"value"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)
