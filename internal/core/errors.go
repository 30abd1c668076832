package core

import (
	"context"
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNotAuthenticated ErrorKind = "not_authenticated"
	KindNetwork          ErrorKind = "network"
	KindAuthRejected     ErrorKind = "auth_rejected"
	KindParse            ErrorKind = "parse"
	KindDetectionFailure ErrorKind = "detection_failure"
)

var (
	ErrNotAuthenticated = errors.New("no usable Cursor session credential")
	ErrDetectionFailed  = errors.New("no Cursor session found on this machine")
)

// UsageError is the error type every outward-facing failure is converted to.
type UsageError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *UsageError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UsageError) Unwrap() error { return e.Err }

func NewError(kind ErrorKind, op string, err error) *UsageError {
	return &UsageError{Kind: kind, Op: op, Err: err}
}

// KindOf classifies err. Context deadlines count as network failures.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ue *UsageError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return KindNotAuthenticated
	case errors.Is(err, ErrDetectionFailed):
		return KindDetectionFailure
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindNetwork
	}
	return KindNetwork
}

// Describe renders err as a single line suitable for a status bar tooltip.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindNotAuthenticated:
		return "Not signed in to Cursor. Sign in or run `cursorusage token set`."
	case KindDetectionFailure:
		return "Could not find a Cursor session on this machine."
	case KindAuthRejected:
		return "Cursor rejected the session token. Sign in again."
	case KindParse:
		return "Unexpected response from Cursor: " + err.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request to Cursor timed out."
	}
	return "Failed to reach Cursor: " + err.Error()
}
