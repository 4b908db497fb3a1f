package executor

import "errors"

var (
	// ErrInvalidRange means range expansion failed; no backing-store call
	// was made.
	ErrInvalidRange = errors.New("executor: invalid range")
	// ErrBackingStore means a sub-query failed in transport or on the
	// server; partial results from the batch were discarded.
	ErrBackingStore = errors.New("executor: backing store failure")
	// ErrQueryBuild means the rows could not be assembled into a filter
	// expression; no backing-store call was made.
	ErrQueryBuild = errors.New("executor: query assembly failure")
)

// classifiedError tags a cause with one of the failure kinds above while
// keeping the cause inspectable through errors.Is/As.
type classifiedError struct {
	kind  error
	cause error
}

func classify(kind, cause error) error {
	return &classifiedError{kind: kind, cause: cause}
}

func (e *classifiedError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *classifiedError) Is(target error) bool {
	return target == e.kind
}

func (e *classifiedError) Unwrap() error {
	return e.cause
}
