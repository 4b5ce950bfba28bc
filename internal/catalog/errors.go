package catalog

import "errors"

var (
	ErrDirectoryMissing = errors.New("source directory not found")
	ErrFileRead         = errors.New("file could not be read")
	ErrMalformedIndex   = errors.New("malformed metadata index")
	ErrLoadFailure      = errors.New("failed to load metadata index")
	ErrInvalidSort      = errors.New("invalid sort option")
)
