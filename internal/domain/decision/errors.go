package decision

import "errors"

// ErrInvalidRequest marks a decision request that fails validation.
var ErrInvalidRequest = errors.New("invalid decision request")
