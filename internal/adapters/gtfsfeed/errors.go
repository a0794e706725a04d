package gtfsfeed

import "errors"

// Sentinel kinds for feed import failures.
var (
	ErrReadFeed  = errors.New("read gtfs feed")
	ErrParseFeed = errors.New("parse gtfs feed")
	ErrEmptyFeed = errors.New("gtfs feed has no usable routes")
)
