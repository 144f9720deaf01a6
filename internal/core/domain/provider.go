package domain

import (
	"errors"
	"fmt"
)

// ProviderError is a failure reported by the message-channel provider:
// network, permission or rate-limit trouble. It is never recovered locally.
type ProviderError struct {
	Op      string // list_channels, create_channel, list_records, append, delete
	Channel string // channel name or ID, empty for workspace-level calls
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Channel == "" {
		return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("provider %s %q: %v", e.Op, e.Channel, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err unless it already is a ProviderError.
func NewProviderError(op, channel string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Op: op, Channel: channel, Err: err}
}

// WritePhase names the step of the delete-then-append sequence that failed.
type WritePhase string

const (
	PhaseFetch  WritePhase = "fetch"
	PhaseDelete WritePhase = "delete"
	PhaseAppend WritePhase = "append"
)

// PartialWriteError reports a persistence failure together with how far the
// delete-then-append sequence got. Unless Phase is PhaseFetch the channel no
// longer holds a decodable snapshot until a later write succeeds.
type PartialWriteError struct {
	Phase    WritePhase
	Fetched  int // records listed for deletion
	Deleted  int // records deleted before the failure
	Appended int // chunks appended before the failure
	Chunks   int // chunks the write intended to append
	Err      error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("write aborted in %s phase (deleted %d/%d, appended %d/%d): %v",
		e.Phase, e.Deleted, e.Fetched, e.Appended, e.Chunks, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// Consistent reports whether the channel was left untouched by the failed write.
func (e *PartialWriteError) Consistent() bool {
	return e.Phase == PhaseFetch || (e.Phase == PhaseDelete && e.Deleted == 0)
}
