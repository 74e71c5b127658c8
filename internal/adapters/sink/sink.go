// Package sink writes seed clusters in the newline-delimited JSON shape
// the downstream clustering stage consumes.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/okian/starseed/internal/domain/model"
)

// Writer emits seed clusters, one JSON object per line.
type Writer struct {
	w io.Writer
}

// NewWriter wraps an io.Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteAll encodes every cluster in order.
func (s *Writer) WriteAll(ctx context.Context, clusters []model.SeedCluster) error {
	enc := json.NewEncoder(s.w)
	for _, c := range clusters {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("write cancelled: %w", err)
		}
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWrite, c.RepoName, err)
		}
	}
	return nil
}

// WriteFile writes clusters to path, creating or truncating it.
func WriteFile(ctx context.Context, path string, clusters []model.SeedCluster) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	defer func() { _ = f.Close() }()

	if err := NewWriter(f).WriteAll(ctx, clusters); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}
