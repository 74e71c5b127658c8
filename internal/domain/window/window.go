// Package window models the half-open time range events are aggregated over.
//
// A window serves two purposes: its day labels select which partitions of
// the star log are read, and its Contains predicate filters individual
// events so that reading a partition can never leak out-of-range events
// into an aggregate.
package window

import (
	"fmt"
	"time"
)

// DayLayout is the partition label format used by the star log.
const DayLayout = "2006-01-02"

const day = 24 * time.Hour

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// New builds a Window, validating that End is after Start.
func New(start, end time.Time) (Window, error) {
	if !end.After(start) {
		return Window{}, fmt.Errorf("%w: [%s, %s)", ErrBadBounds, start, end)
	}
	return Window{Start: start, End: end}, nil
}

// Parse builds a Window from start/end dates in DayLayout form.
// The end date is exclusive.
func Parse(startDate, endDate string) (Window, error) {
	start, err := time.Parse(DayLayout, startDate)
	if err != nil {
		return Window{}, fmt.Errorf("%w: start_date %q", ErrBadDate, startDate)
	}
	end, err := time.Parse(DayLayout, endDate)
	if err != nil {
		return Window{}, fmt.Errorf("%w: end_date %q", ErrBadDate, endDate)
	}
	return New(start, end)
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ContainsDay reports whether the day-long partition labeled with a
// DayLayout date overlaps the window. A partition that merely overlaps
// may still hold events outside the window; Contains filters those.
func (w Window) ContainsDay(label string) bool {
	start, err := time.Parse(DayLayout, label)
	if err != nil {
		return false
	}
	return start.Before(w.End) && start.Add(day).After(w.Start)
}

// String renders the window bounds in partition-label form.
func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(DayLayout), w.End.Format(DayLayout))
}
