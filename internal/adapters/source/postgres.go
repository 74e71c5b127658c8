package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/okian/starseed/internal/domain/model"
	"github.com/okian/starseed/internal/domain/window"

	// Register the pgx stdlib driver for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

const defaultStarTable = "star_events"

// Open opens a database/sql handle to the star log using the pgx driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScan, err)
	}
	return db, nil
}

// PostgresSource reads star events from a Postgres table. The table is
// expected to be time-partitioned on starred_at; the half-open range
// predicate lets the planner prune partitions outside the window.
type PostgresSource struct {
	db    *sql.DB
	table string
}

// PostgresOption configures the Postgres source.
type PostgresOption func(*PostgresSource)

// WithTable overrides the default star log table name.
func WithTable(table string) PostgresOption {
	return func(s *PostgresSource) {
		if table != "" {
			s.table = table
		}
	}
}

// NewPostgresSource constructs a read-only source over db.
func NewPostgresSource(db *sql.DB, opts ...PostgresOption) *PostgresSource {
	s := &PostgresSource{db: db, table: defaultStarTable}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan streams events with starred_at inside [w.Start, w.End).
func (s *PostgresSource) Scan(ctx context.Context, w window.Window, fn func(model.StarEvent) error) error {
	if s.db == nil {
		return fmt.Errorf("%w: nil db", ErrScan)
	}

	query := fmt.Sprintf(`
SELECT actor, repo_name, starred_at
FROM %s
WHERE starred_at >= $1
	AND starred_at < $2`, s.table)

	rows, err := s.db.QueryContext(ctx, query, w.Start, w.End)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScan, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var e model.StarEvent
		if err := rows.Scan(&e.Actor, &e.RepoName, &e.StarredAt); err != nil {
			return fmt.Errorf("%w: %v", ErrBadRow, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrScan, err)
	}
	return nil
}
