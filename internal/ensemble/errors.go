package ensemble

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFitted is returned by Predict and Score before a successful Fit.
	ErrNotFitted = errors.New("ensemble is not fitted")

	// ErrEmptyEnsemble is returned when no algorithms are configured.
	ErrEmptyEnsemble = errors.New("ensemble has no models")

	// ErrEmptyInput is returned for inputs with zero rows.
	ErrEmptyInput = errors.New("empty input")
)

// UnknownAlgorithmError reports an identifier missing from the registry.
type UnknownAlgorithmError struct {
	Algorithm string
	Supported []string
}

func (e *UnknownAlgorithmError) Error() string {
	return fmt.Sprintf("unknown algorithm %q (supported: %v)", e.Algorithm, e.Supported)
}

// InvalidConfigurationError reports parameters rejected while constructing a base learner,
// or an ensemble-level setting out of range when Algorithm is empty.
type InvalidConfigurationError struct {
	Algorithm string
	Err       error
}

func (e *InvalidConfigurationError) Error() string {
	if e.Algorithm == "" {
		return fmt.Sprintf("invalid ensemble configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration for %s: %v", e.Algorithm, e.Err)
}

func (e *InvalidConfigurationError) Unwrap() error { return e.Err }

// ModelFitError reports a base learner that failed to train or to cross-validate. The
// ensemble is left unfitted.
type ModelFitError struct {
	Algorithm string
	Err       error
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("fit %s: %v", e.Algorithm, e.Err)
}

func (e *ModelFitError) Unwrap() error { return e.Err }

// DimensionMismatchError reports a label vector whose length differs from the row count.
type DimensionMismatchError struct {
	Expected int // rows in X
	Actual   int // len(y)
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: X has %d rows, y has %d labels", e.Expected, e.Actual)
}

// InvalidLabelError reports a label that cannot be tallied (labels must be non-negative).
type InvalidLabelError struct {
	Index int
	Label int
}

func (e *InvalidLabelError) Error() string {
	return fmt.Sprintf("invalid label %d at row %d: labels must be non-negative integers", e.Label, e.Index)
}
