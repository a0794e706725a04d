package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrMissingID = errors.New("record id is required")
)
