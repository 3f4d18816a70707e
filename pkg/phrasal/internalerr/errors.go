package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrBadFormat     = errors.New("malformed input corpus")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrUnknownFormat = errors.New("unknown output format")
)
