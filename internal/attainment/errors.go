package attainment

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks across package boundaries. The typed errors
// below wrap these and carry enough entity identity for a human to locate and
// fix the offending record.
var (
	ErrLocked            = errors.New("scope is locked")
	ErrIncompleteMapping = errors.New("assessment component has no course outcome mapping")
	ErrInvalidMark       = errors.New("mark outside valid range")
)

// LockedError refuses computation for a locked semester scope.
type LockedError struct {
	Scope Scope
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("computation refused: %s is locked", e.Scope.Key())
}

func (e *LockedError) Unwrap() error { return ErrLocked }

// IncompleteMappingError reports a component that is not tagged to any CO, or
// tagged to a CO the course does not declare. Computation may not run until
// the mapping is complete.
type IncompleteMappingError struct {
	Scope        Scope
	AssessmentID string
	Component    int
	OutcomeID    string // empty when untagged
}

func (e *IncompleteMappingError) Error() string {
	if e.OutcomeID == "" {
		return fmt.Sprintf("%s: assessment %s component %d has no CO mapping",
			e.Scope.Key(), e.AssessmentID, e.Component)
	}
	return fmt.Sprintf("%s: assessment %s component %d maps to unknown CO %s",
		e.Scope.Key(), e.AssessmentID, e.Component, e.OutcomeID)
}

func (e *IncompleteMappingError) Unwrap() error { return ErrIncompleteMapping }

// InvalidMarkError reports a mark that is negative or exceeds its component's
// maximum. The whole run is rejected so that no partial result is persisted.
type InvalidMarkError struct {
	Scope        Scope
	AssessmentID string
	Component    int
	StudentID    string
	Marks        float64
	MaxMarks     float64
}

func (e *InvalidMarkError) Error() string {
	return fmt.Sprintf("%s: assessment %s component %d student %s: mark %.2f outside [0, %.2f]",
		e.Scope.Key(), e.AssessmentID, e.Component, e.StudentID, e.Marks, e.MaxMarks)
}

func (e *InvalidMarkError) Unwrap() error { return ErrInvalidMark }

// ValidationErrors collects every precondition failure found in one pass, so
// a single recompute attempt surfaces all offending records at once.
type ValidationErrors struct {
	Errs []error
}

func (e *ValidationErrors) Error() string {
	if len(e.Errs) == 1 {
		return e.Errs[0].Error()
	}
	return fmt.Sprintf("%d validation errors, first: %s", len(e.Errs), e.Errs[0].Error())
}

func (e *ValidationErrors) Unwrap() []error { return e.Errs }
