package extractor

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidInput is the only error ScoreIntent reports to callers.
	ErrInvalidInput = errors.New("invalid scoring input")
	ErrExtraction   = errors.New("no score could be extracted from reply")
	ErrValidation   = errors.New("score result failed validation")
	ErrTransient    = errors.New("remote scoring service failure")
)

// StatusError is a non-2xx reply from the chat endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm gateway returned %d: %s", e.Code, truncate(e.Body, 300))
}

func (e *StatusError) Unwrap() error { return ErrTransient }

// Retryable reports whether another attempt could succeed.
func (e *StatusError) Retryable() bool {
	if e.Code == http.StatusRequestTimeout || e.Code == http.StatusTooManyRequests {
		return true
	}
	return e.Code >= 500
}

// ExtractionError lists why each recovery strategy rejected the reply.
type ExtractionError struct {
	Failures []string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s (%s)", ErrExtraction, strings.Join(e.Failures, "; "))
}

func (e *ExtractionError) Unwrap() error { return ErrExtraction }

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
