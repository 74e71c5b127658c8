package window

import "errors"

// Sentinel kinds for window errors.
var (
	ErrBadBounds = errors.New("window end must be after start")
	ErrBadDate   = errors.New("invalid date")
)
