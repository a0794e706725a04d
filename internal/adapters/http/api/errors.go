package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// wrapKind prefixes err with the operation name and tags it with kind.
func wrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// newKind reports kind for op with a message.
func newKind(op string, kind error, msg string) error {
	return fmt.Errorf("%s: %w: %s", op, kind, msg)
}

var errMissingIDs = errors.New("stop_id and route_id are required")
