package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

var _ Interface = &SQLiteLedger{}

type SQLiteLedger struct {
	db *sql.DB
}

func NewSQLiteLedger(path string) (*SQLiteLedger, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger at %s: %w", path, err)
	}

	if _, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS runs (
            id TEXT PRIMARY KEY,
            status TEXT NOT NULL,
            started_at TIMESTAMP NOT NULL,
            finished_at TIMESTAMP NULL
        );
        CREATE TABLE IF NOT EXISTS metrics (
            run_id TEXT NOT NULL,
            stage TEXT NOT NULL,
            key TEXT NOT NULL,
            value REAL NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_metrics_run_id ON metrics (run_id);
    `); err != nil {
		return nil, fmt.Errorf("create ledger tables: %w", err)
	}

	log.Printf("📂 Run ledger at %s", path)
	return &SQLiteLedger{db: db}, nil
}

func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}

func (s *SQLiteLedger) StartRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, datetime(?))`,
		run.ID, run.Status, run.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		log.Printf("⚠️ Error recording run %s: %v", run.ID, err)
		return err
	}
	return nil
}

func (s *SQLiteLedger) FinishRun(ctx context.Context, runID, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = datetime(?) WHERE id = ?`,
		status, time.Now().UTC().Format(timeLayout), runID,
	)
	if err != nil {
		log.Printf("⚠️ Error finishing run %s: %v", runID, err)
		return err
	}
	return nil
}

func (s *SQLiteLedger) SaveMetric(ctx context.Context, metric Metric) error {
	createdAt := metric.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metrics (run_id, stage, key, value, created_at) VALUES (?, ?, ?, ?, datetime(?))`,
		metric.RunID, metric.Stage, metric.Key, metric.Value, createdAt.UTC().Format(timeLayout),
	)
	if err != nil {
		log.Printf("⚠️ Error saving metric %s for run %s: %v", metric.Key, metric.RunID, err)
		return err
	}
	return nil
}

func (s *SQLiteLedger) GetMetricsByRunID(ctx context.Context, runID string) ([]Metric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, stage, key, value, created_at
		 FROM metrics
		 WHERE run_id = ?
		 ORDER BY created_at ASC, rowid ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []Metric
	for rows.Next() {
		var m Metric
		var createdAt string
		if err = rows.Scan(&m.RunID, &m.Stage, &m.Key, &m.Value, &createdAt); err != nil {
			log.Printf("⚠️ Error scanning metric row for run %s: %v", runID, err)
			continue
		}
		m.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		metrics = append(metrics, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return metrics, nil
}
