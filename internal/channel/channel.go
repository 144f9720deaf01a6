// Package channel defines the message-channel abstraction chanstore persists
// into, and the resolver that locates or provisions the storage channel.
//
// A channel is a remote, ordered, paginated sequence of immutable text
// records. Providers only offer list, append and delete; there is no
// multi-record transaction.
package channel

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/yndnr/chanstore/internal/core/domain"
)

// Provider limits observed on the chat platform the store was designed for.
const (
	// MaxPageLimit is the largest page ListRecent may return.
	MaxPageLimit = 100

	// MaxRecordBytes is the per-record body limit.
	MaxRecordBytes = 2000
)

// Provider operation names, used in errors, logs and metrics.
const (
	OpListChannels  = "list_channels"
	OpCreateChannel = "create_channel"
	OpListRecent    = "list_records"
	OpAppend        = "append"
	OpDelete        = "delete"
)

// Ref identifies a channel within a workspace.
type Ref struct {
	ID        string `json:"id"`
	Workspace string `json:"workspace"`
	Name      string `json:"name"`
	Position  int    `json:"position"`

	// Restricted is true when the general membership role may not read it.
	Restricted bool `json:"restricted"`

	CreatedAt time.Time `json:"created_at"`
}

func (r *Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Workspace, r.Name)
}

// Record is one immutable text unit in a channel.
type Record struct {
	// ID is the stable identity used for deletion.
	ID string `json:"id"`

	// Seq orders records within a channel; larger is newer.
	Seq uint64 `json:"seq"`

	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSpec describes a channel to provision.
type CreateSpec struct {
	Name     string
	Position int

	// DenyEveryoneRead hides the channel from the general membership role.
	DenyEveryoneRead bool
}

// Provider is the message-channel collaborator.
//
// Implementations must return records from ListRecent in chronological
// order (oldest first) and reject Append bodies over MaxRecordBytes with
// domain.ErrRecordTooLarge.
type Provider interface {
	// ListChannels returns every channel of a workspace.
	ListChannels(ctx context.Context, workspace string) ([]Ref, error)

	// CreateChannel provisions a new channel.
	CreateChannel(ctx context.Context, workspace string, spec CreateSpec) (*Ref, error)

	// ListRecent returns up to limit most recent records, oldest first.
	ListRecent(ctx context.Context, ch *Ref, limit int) ([]Record, error)

	// Append adds a record at the end of the channel.
	Append(ctx context.Context, ch *Ref, body string) (*Record, error)

	// Delete removes one record.
	Delete(ctx context.Context, ch *Ref, recordID string) error
}

// ClampLimit bounds a page limit to [1, MaxPageLimit].
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}

// ClampRecordLimit bounds a record size limit to [utf8.UTFMax,
// MaxRecordBytes]. Zero or less means MaxRecordBytes.
func ClampRecordLimit(limit int) int {
	switch {
	case limit <= 0 || limit > MaxRecordBytes:
		return MaxRecordBytes
	case limit < utf8.UTFMax:
		return utf8.UTFMax
	}
	return limit
}

// CheckBody validates a record body against the per-record limit.
func CheckBody(body string, limit int) error {
	if limit <= 0 {
		limit = MaxRecordBytes
	}
	if len(body) > limit {
		return domain.ErrRecordTooLarge.WithDetails(fmt.Sprintf("%d bytes > %d", len(body), limit))
	}
	return nil
}
