package genevents

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/starseed/internal/adapters/source"
	"github.com/okian/starseed/internal/domain/model"
	"github.com/okian/starseed/internal/domain/window"
)

// WritePartitions writes events into day-partitioned NDJSON files under
// dir, using the same naming scheme the directory source reads.
func WritePartitions(ctx context.Context, dir string, events []model.StarEvent) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFixture, dir, err)
	}

	byDay := make(map[string][]model.StarEvent)
	for _, e := range events {
		label := e.StarredAt.UTC().Format(window.DayLayout)
		byDay[label] = append(byDay[label], e)
	}

	for label, dayEvents := range byDay {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("write cancelled: %w", err)
		}
		path := filepath.Join(dir, source.PartitionName(label))
		if err := writePartition(path, dayEvents); err != nil {
			return err
		}
	}
	return nil
}

func writePartition(path string, events []model.StarEvent) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFixture, path, err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	for _, e := range events {
		if err := enc.Encode(source.RowOf(e)); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWriteFixture, path, err)
		}
	}
	return nil
}
