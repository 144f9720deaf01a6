package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
//
// Codes follow the format CS-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "CS-STOR-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// Wrap returns a copy of the error wrapping the given cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Storage Errors (STOR)
// ============================================================================

var (
	// ErrNotFound indicates the requested key is absent from the store.
	ErrNotFound = NewDomainError("CS-STOR-4040", "key not found")

	// ErrWrongType indicates the key holds a value of a different runtime type
	// than the one requested.
	ErrWrongType = NewDomainError("CS-STOR-4220", "stored value has a different type")

	// ErrStoreNotReady indicates an operation ran before loading finished.
	ErrStoreNotReady = NewDomainError("CS-STOR-5030", "store is not ready")
)

// ============================================================================
// Snapshot Errors (SNAP)
// ============================================================================

var (
	// ErrSnapshotMalformed indicates snapshot text that is not valid encoder
	// output: truncated, corrupted, sealed with another key, or written by an
	// incompatible schema.
	ErrSnapshotMalformed = NewDomainError("CS-SNAP-4000", "malformed snapshot")
)

// ============================================================================
// Channel Errors (CHAN)
// ============================================================================

var (
	// ErrChannelNotFound indicates the referenced channel does not exist.
	ErrChannelNotFound = NewDomainError("CS-CHAN-4040", "channel not found")

	// ErrRecordNotFound indicates the referenced record does not exist.
	ErrRecordNotFound = NewDomainError("CS-CHAN-4041", "record not found")

	// ErrRecordTooLarge indicates a record body over the per-record limit.
	ErrRecordTooLarge = NewDomainError("CS-CHAN-4130", "record exceeds size limit")

	// ErrChannelExists indicates a channel with that name already exists.
	ErrChannelExists = NewDomainError("CS-CHAN-4090", "channel already exists")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInvalidArgument indicates a caller supplied an invalid argument.
	ErrInvalidArgument = NewDomainError("CS-SYS-4000", "invalid argument")
)
