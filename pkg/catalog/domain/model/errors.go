package model

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrMutationFinished  = errors.New("mutation already finished")
	ErrMutationNotActive = errors.New("mutation is not pending")
)

// TransportError is a failed exchange with the remote catalog.
// Status is zero when no HTTP response was received.
type TransportError struct {
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("catalog transport error: %s", e.Message)
	}
	return fmt.Sprintf("catalog transport error (status %d): %s", e.Status, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the exchange failed on a deadline.
func (e *TransportError) Timeout() bool {
	if e.Status == http.StatusGatewayTimeout || e.Status == http.StatusRequestTimeout {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

type NotFoundError struct {
	ID      int
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("product with id '%d' not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type Violation struct {
	Field  string
	Reason string
}

// ValidationError is raised before anything reaches the network.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Reason)
	}
	return "invalid product: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, reason string) {
	e.Violations = append(e.Violations, Violation{Field: field, Reason: reason})
}

// OrNil returns e when it holds at least one violation.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}
