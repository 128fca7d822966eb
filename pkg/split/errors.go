package split

import "errors"

var (
	// ErrNotGenerated is returned by Lookup on an index that was never built
	// or read.
	ErrNotGenerated = errors.New("split: index not generated")
	// ErrOutOfRange means the key is above the largest boundary.
	ErrOutOfRange = errors.New("split: key out of range")
	// ErrMalformed reports a truncated or non-numeric persisted index.
	ErrMalformed = errors.New("split: malformed persisted index")
	// ErrInvalidGenerator reports empty, negative or duplicate boundaries.
	ErrInvalidGenerator = errors.New("split: invalid generator output")
)
