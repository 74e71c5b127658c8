// Package source provides read-only access to the append-only,
// time-partitioned star log. Sources are addressed by a window: the
// window's day labels select which partitions to read, and every row is
// additionally filtered by the window's event predicate.
package source

import (
	"context"

	"github.com/okian/starseed/internal/domain/model"
	"github.com/okian/starseed/internal/domain/window"
)

// Source streams star events that fall inside a window.
type Source interface {
	// Scan invokes fn for every event whose partition and timestamp fall
	// inside w. Scanning stops at the first error fn returns.
	Scan(ctx context.Context, w window.Window, fn func(model.StarEvent) error) error
}
