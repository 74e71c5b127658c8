package source

import "errors"

// Sentinel kinds for star log source errors.
var (
	ErrScan   = errors.New("star log scan failed")
	ErrBadRow = errors.New("malformed star log row")
)
