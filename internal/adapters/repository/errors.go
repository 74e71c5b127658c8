package repository

import "errors"

// Sentinel kinds for aggregate store errors.
var (
	ErrNotFound     = errors.New("repository not found")
	ErrInvalidLimit = errors.New("invalid limit")
)
