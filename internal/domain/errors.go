package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFit marks a volume/area curve that cannot produce an area model.
	ErrFit = errors.New("area model fit failed")

	// ErrConstraintParse marks a malformed operational constraints table.
	ErrConstraintParse = errors.New("malformed operational constraints")

	// ErrInvalidDataset marks a dataset that breaks the simulator preconditions.
	ErrInvalidDataset = errors.New("invalid reservoir dataset")
)

// FitError reports why the volume/area samples could not be fitted.
type FitError struct {
	Samples int
	Reason  string
	Err     error
}

func (e *FitError) Error() string {
	msg := fmt.Sprintf("fit area model (%d samples): %s", e.Samples, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FitError) Is(target error) bool { return target == ErrFit }

func (e *FitError) Unwrap() error { return e.Err }

// ConstraintParseError reports the first constraint row that could not be read.
type ConstraintParseError struct {
	Row       int
	Parameter string
	Err       error
}

func (e *ConstraintParseError) Error() string {
	return fmt.Sprintf("read operational constraints: row %d (%q): %v", e.Row+1, e.Parameter, e.Err)
}

func (e *ConstraintParseError) Is(target error) bool { return target == ErrConstraintParse }

func (e *ConstraintParseError) Unwrap() error { return e.Err }

// ValidationError lists the precondition failures found in a dataset.
type ValidationError struct {
	ReservoirID string
	Problems    []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidDataset, e.ReservoirID, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidDataset }

// ErrReportNotFound is returned by result stores for unknown reservoirs.
var ErrReportNotFound = errors.New("simulation report not found")
