package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"review-scraper/models"
)

// Sink stores the reviews of a finished run
type Sink interface {
	Write(ctx context.Context, reviews []models.Review) error
}

// JSONFile writes reviews as an indented JSON array. The file is replaced
// atomically: readers see either the previous content or the complete new one.
type JSONFile struct {
	Path string
}

// NewJSONFile creates a JSONFile sink for path
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{Path: path}
}

// Write implements Sink
func (j *JSONFile) Write(ctx context.Context, reviews []models.Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}

	data, err := json.MarshalIndent(reviews, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode reviews: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(j.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(j.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, j.Path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", j.Path, err)
	}

	committed = true
	return nil
}

// ReadJSONFile reads reviews written by JSONFile
func ReadJSONFile(path string) ([]models.Review, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var reviews []models.Review
	if err := json.Unmarshal(data, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return reviews, nil
}
