package sink

import "errors"

// Sentinel kinds for sink errors.
var (
	ErrWrite = errors.New("seed cluster write failed")
)
