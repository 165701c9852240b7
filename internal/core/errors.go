package core

import (
	"fmt"
	"time"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// OrderError reports a timestamp that does not follow its predecessor.
type OrderError struct {
	Index int
	Prev  time.Time
	Curr  time.Time
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("bar %d at %s is not after %s", e.Index,
		e.Curr.Format(time.RFC3339), e.Prev.Format(time.RFC3339))
}

// Predefined errors
var (
	// Data errors
	ErrNoData          = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrDatasetNotFound = &Error{Code: "DATASET_NOT_FOUND", Message: "dataset not found"}

	// Strategy errors
	ErrUnknownStrategy = &Error{Code: "UNKNOWN_STRATEGY", Message: "unknown strategy"}

	// Learned signal errors
	ErrInsufficientHorizon = &Error{Code: "INSUFFICIENT_HORIZON", Message: "expiration window is shorter than one bar"}
	ErrDegenerateTarget    = &Error{Code: "DEGENERATE_TARGET", Message: "training labels contain a single class"}

	// Job errors
	ErrJobNotFound = &Error{Code: "JOB_NOT_FOUND", Message: "job not found"}
	ErrRunFailed   = &Error{Code: "RUN_FAILED", Message: "backtest run failed"}

	// API errors
	ErrUnauthorized   = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid API key"}
	ErrReportNotFound = &Error{Code: "REPORT_NOT_FOUND", Message: "saved run not found"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
