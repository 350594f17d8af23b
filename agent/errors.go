package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSearcher is wrapped in a SearchError when a response asks for a
	// web search but the worker has no search backend.
	ErrNoSearcher = errors.New("no search backend configured")

	// ErrUnknownRole is returned when a roster override names a role that
	// is not part of the crew.
	ErrUnknownRole = errors.New("unknown role")
)

// GenerationError reports a failed call to the generation backend.
type GenerationError struct {
	Worker string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for %s: %v", e.Worker, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// SearchError reports a failed call to the search backend.
type SearchError struct {
	Worker string
	Query  string
	Err    error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %q failed for %s: %v", e.Query, e.Worker, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }
