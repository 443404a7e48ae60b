package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a load produced no records.
type FailureKind string

const (
	FailureInvalidURL FailureKind = "invalid_url"
	FailureBadStatus  FailureKind = "bad_status"
	FailureIO         FailureKind = "io_failure"
	FailureParse      FailureKind = "parse_failure"
)

// LoadError is returned by the fetcher and parser. The pipeline logs it and
// degrades to an empty result; callers of the public load never see it.
type LoadError struct {
	Kind       FailureKind
	StatusCode int // set for FailureBadStatus
	Err        error
}

func (e *LoadError) Error() string {
	switch {
	case e.Kind == FailureBadStatus:
		return fmt.Sprintf("%s: status %d", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind carried by err, or "" if err is not a
// LoadError.
func KindOf(err error) FailureKind {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
