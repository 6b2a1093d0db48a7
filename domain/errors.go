package domain

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed or oversized input before a job exists.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// ExtractionError indicates an unreadable, empty or encrypted document.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("text extraction failed: %s: %v", e.Reason, e.Err)
	}
	return "text extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// SynthesisError wraps a failed external voice-synthesis call. Transient
// failures (rate limit, timeout, server fault) are retried internally;
// permanent ones short-circuit retry.
type SynthesisError struct {
	StatusCode int
	Transient  bool
	Reason     string
	Err        error
}

func (e *SynthesisError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.Err != nil {
		return fmt.Sprintf("synthesis failed (%s): %s: %v", kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("synthesis failed (%s): %s", kind, e.Reason)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// AssemblyError indicates a format mismatch or an incomplete chunk set.
type AssemblyError struct {
	Reason string
}

func (e *AssemblyError) Error() string {
	return "audio assembly failed: " + e.Reason
}

// StorageError wraps a job store or audio store read/write failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a synthesis failure worth retrying.
func IsTransient(err error) bool {
	var se *SynthesisError
	return errors.As(err, &se) && se.Transient
}
