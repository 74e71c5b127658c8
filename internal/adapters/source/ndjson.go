package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/starseed/internal/domain/model"
	"github.com/okian/starseed/internal/domain/window"
)

// Partition file naming constants.
const (
	PartitionPrefix = "stars-"
	PartitionSuffix = ".ndjson"

	// Lines can carry long repo lists in pathological exports; allow 1 MiB.
	maxLineBytes = 1 << 20
)

// Row is the wire shape of one star event in an NDJSON partition.
type Row struct {
	DeliveryID string `json:"delivery_id,omitempty"`
	Actor      string `json:"actor"`
	RepoName   string `json:"repo_name"`
	StarredAt  string `json:"starred_at"` // RFC3339
}

// Event converts a row to the domain event, parsing the timestamp.
func (r Row) Event() (model.StarEvent, error) {
	ts, err := time.Parse(time.RFC3339, r.StarredAt)
	if err != nil {
		return model.StarEvent{}, fmt.Errorf("%w: starred_at %q", ErrBadRow, r.StarredAt)
	}
	return model.StarEvent{
		DeliveryID: r.DeliveryID,
		Actor:      r.Actor,
		RepoName:   r.RepoName,
		StarredAt:  ts,
	}, nil
}

// RowOf converts a domain event to its wire shape.
func RowOf(e model.StarEvent) Row {
	return Row{
		DeliveryID: e.DeliveryID,
		Actor:      e.Actor,
		RepoName:   e.RepoName,
		StarredAt:  e.StarredAt.UTC().Format(time.RFC3339),
	}
}

// PartitionName returns the partition file name for a day label.
func PartitionName(label string) string {
	return PartitionPrefix + label + PartitionSuffix
}

// DirSource reads day-partitioned NDJSON files named stars-YYYY-MM-DD.ndjson.
type DirSource struct {
	dir string
}

// NewDirSource creates a source over a directory of partition files.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Scan walks the partitions whose labels overlap w, oldest first, and
// streams their in-window events.
func (s *DirSource) Scan(ctx context.Context, w window.Window, fn func(model.StarEvent) error) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrScan, s.dir, err)
	}

	// ReadDir returns names sorted, so partitions come oldest first.
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		label, ok := partitionLabel(entry.Name())
		if !ok || !w.ContainsDay(label) {
			continue
		}
		if err := s.scanFile(ctx, filepath.Join(s.dir, entry.Name()), w, fn); err != nil {
			return err
		}
	}
	return nil
}

// partitionLabel extracts the day label from a partition file name.
func partitionLabel(name string) (string, bool) {
	if !strings.HasPrefix(name, PartitionPrefix) || !strings.HasSuffix(name, PartitionSuffix) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(name, PartitionPrefix), PartitionSuffix), true
}

func (s *DirSource) scanFile(ctx context.Context, path string, w window.Window, fn func(model.StarEvent) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrScan, path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scan cancelled: %w", err)
		}
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var row Row
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return fmt.Errorf("%w: %s:%d: %v", ErrBadRow, path, line, err)
		}
		event, err := row.Event()
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if !w.Contains(event.StarredAt) {
			continue
		}
		if err := fn(event); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrScan, path, err)
	}
	return nil
}
