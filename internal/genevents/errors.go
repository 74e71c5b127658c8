package genevents

import "errors"

// Sentinel kinds for generator errors.
var (
	ErrBadParams    = errors.New("invalid generation params")
	ErrWriteFixture = errors.New("fixture write failed")
)
