package stats

import "errors"

var (
	// ErrLengthMismatch is raised (as a panic) when two Vec values of
	// different lengths are merged.
	ErrLengthMismatch = errors.New("stats: merge of sequences with different lengths")

	// ErrResultOrder is raised (as a panic) when a failed Result is merged
	// with a successful one. Errors must propagate left to right.
	ErrResultOrder = errors.New("stats: successful result merged into failed result")

	// ErrSketchMismatch is raised (as a panic) when two sketches with
	// incompatible configurations are merged.
	ErrSketchMismatch = errors.New("stats: incompatible sketches")

	ErrInvalidQuantile = errors.New("stats: quantile must be in (0, 1)")
	ErrEmpty           = errors.New("stats: no observations")
)
