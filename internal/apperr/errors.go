// Package apperr defines the structured error taxonomy shared by services
// and transport. Every user-visible failure carries a stable code plus
// enough detail (counts, timestamps) to explain why, not just that, an
// operation did not proceed.
package apperr

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable error code.
type Code string

const (
	CodeNotFound             Code = "NOT_FOUND"
	CodeInvalidInput         Code = "INVALID_INPUT"
	CodeNoSubjectsFound      Code = "NO_SUBJECTS_FOUND"
	CodeNoSubmissionsFound   Code = "NO_SUBMISSIONS_FOUND"
	CodeNoNewSubmissions     Code = "NO_NEW_SUBMISSIONS"
	CodeAnalysisInProgress   Code = "ANALYSIS_IN_PROGRESS"
	CodeNarrativeQuota       Code = "NARRATIVE_QUOTA_EXCEEDED"
	CodeNarrativeAuth        Code = "NARRATIVE_AUTH_FAILED"
	CodeNarrativeUnavailable Code = "NARRATIVE_UNAVAILABLE"
)

// Error is a structured application error.
type Error struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithDetail attaches a named diagnostic value and returns the error for
// chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// CodeOf returns the code of err, or empty if err is not an *Error.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
