package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Pipeline stages an Error can point at, so an operator can tell
// "nothing happened" from "partially happened and was cleaned up".
const (
	StageObjectWrite    = "object_write"
	StageDocumentSync   = "document_sync"
	StageRelationalSync = "relational_sync"
	StageGraphSync      = "graph_sync"
)

// Error is a status-coded error. Stage and Compensated are only set for
// upsert-pipeline failures.
type Error struct {
	Status      int
	Code        string
	Stage       string
	Compensated bool
	Err         error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := "api error"
	if e.Err != nil {
		msg = e.Err.Error()
	} else if e.Code != "" {
		msg = e.Code
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s (stage=%s, compensated=%t)", msg, e.Stage, e.Compensated)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "validation", Err: fmt.Errorf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Status: http.StatusNotFound, Code: "not_found", Err: fmt.Errorf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Status: http.StatusConflict, Code: "conflict", Err: fmt.Errorf(format, args...)}
}

// Upstream wraps a store driver failure with the stage that produced it.
func Upstream(stage string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "upstream_store", Stage: stage, Err: err}
}

// WithCompensation marks that the partially-created state was rolled back.
func (e *Error) WithCompensation() *Error {
	if e == nil {
		return nil
	}
	e.Compensated = true
	return e
}

// StatusOf maps any error onto an HTTP status, defaulting to 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	return "internal"
}

func IsValidation(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == "validation"
}

func IsConflict(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == "conflict"
}

func IsNotFound(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == "not_found"
}
