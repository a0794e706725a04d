package transit

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrInvalidRegistry = errors.New("invalid registry")
)
