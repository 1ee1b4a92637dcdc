package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

var NotFound = errors.New("Not found")

// Check if err is instance of T for custom error types
func Is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// Admission failure taxonomy. All of these are terminal, user-input-class
// failures: the caller gets them verbatim and nothing is retried.

type ThreadNotFoundError struct {
	ThreadId uuid.UUID
}

func (e *ThreadNotFoundError) Error() string {
	return fmt.Sprintf("thread %s not found", e.ThreadId)
}

type ThreadClosedError struct {
	ThreadId uuid.UUID
}

func (e *ThreadClosedError) Error() string {
	return fmt.Sprintf("thread %s is closed", e.ThreadId)
}

type BannedError struct {
	Reason      string
	ActiveUntil time.Time
}

func (e *BannedError) Error() string {
	return fmt.Sprintf("posting is blocked until %s: %s", e.ActiveUntil.Format(time.RFC3339), e.Reason)
}

type QuotaKind string

const (
	QuotaCount QuotaKind = "count"
	QuotaBytes QuotaKind = "bytes"
)

type QuotaExceededError struct {
	Kind   QuotaKind
	Limit  int64
	Actual int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("attachment %s quota exceeded: %d > %d", e.Kind, e.Actual, e.Limit)
}

type UnsupportedTypeError struct {
	Extension string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported attachment type: %q", e.Extension)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("Validation error: %s", e.Message)
	}
	return fmt.Sprintf("Validation error: %s: %s", e.Field, e.Message)
}

// PersistenceError wraps a failure of the atomic create-post-and-bump step.
// Storage guarantees no partial state was applied when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// StatusCode maps engine errors to HTTP statuses at the handler boundary:
// not-found 404, banned 403, the remaining input-class rejections 400.
func StatusCode(err error) int {
	var withStatus *ErrorWithStatusCode
	switch {
	case errors.As(err, &withStatus):
		return withStatus.StatusCode
	case errors.Is(err, NotFound), Is[*ThreadNotFoundError](err):
		return http.StatusNotFound
	case Is[*BannedError](err):
		return http.StatusForbidden
	case Is[*ThreadClosedError](err),
		Is[*QuotaExceededError](err),
		Is[*UnsupportedTypeError](err),
		Is[*ValidationError](err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
