package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Staging artifact names, one per stage boundary. Each stage reads its
// predecessor's file and writes its own, so a failed run can resume
// from the last completed stage.
const (
	sentencesArtifact = "sentences.json"
	chunksArtifact    = "chunks.json"
	embeddedArtifact  = "embedded.json"
)

func saveJSON[T any](path string, v T) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func loadJSON[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("read %s: %w", path, err)
	}
	if err = json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}
