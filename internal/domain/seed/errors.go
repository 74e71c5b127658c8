package seed

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrMalformedEvent = errors.New("malformed star event")
)
