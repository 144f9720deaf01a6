package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/chanstore/internal/channel"
	"github.com/yndnr/chanstore/internal/core/domain"
	"github.com/yndnr/chanstore/internal/storage/snapshot"
	"github.com/yndnr/chanstore/internal/telemetry/logger"
	"github.com/yndnr/chanstore/internal/telemetry/metric"
)

// State is the lifecycle stage of a store.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Options configures Open and OpenDynamic.
type Options struct {
	// Provider is the message-channel collaborator. Required.
	Provider channel.Provider

	// Workspace and Channel locate the storage channel. Channel defaults
	// to channel.DefaultName.
	Workspace string
	Channel   string

	// PageLimit is the number of records read on load and listed for
	// deletion on write. Defaults to channel.MaxPageLimit.
	PageLimit int

	// RecordLimit is the maximum chunk size in bytes. Defaults to
	// channel.MaxRecordBytes, which is also its upper bound.
	RecordLimit int

	// Sealer, when set, encrypts every written snapshot.
	Sealer *snapshot.Sealer

	// Persister overrides the write strategy. Defaults to FullRewrite.
	Persister Persister

	// WriteTimeout bounds each Write when positive.
	WriteTimeout time.Duration

	Logger  *slog.Logger
	Metrics *metric.Metrics
}

func (o *Options) applyDefaults(ctx context.Context) error {
	if o.Provider == nil {
		return domain.ErrInvalidArgument.WithDetails("provider is required")
	}
	if o.Channel == "" {
		o.Channel = channel.DefaultName
	}
	o.PageLimit = channel.ClampLimit(o.PageLimit)
	o.RecordLimit = channel.ClampRecordLimit(o.RecordLimit)
	if o.Persister == nil {
		o.Persister = &FullRewrite{Provider: o.Provider, PageLimit: o.PageLimit, RecordLimit: o.RecordLimit}
	}
	if o.Logger == nil {
		o.Logger = logger.FromContext(ctx)
	}
	return nil
}

// engine holds what the typed and dynamic stores share: the channel, the
// write path and the lifecycle.
type engine struct {
	opts   Options
	ref    *channel.Ref
	logger *slog.Logger

	state atomic.Int32

	// writeMu serialises Write within one store instance.
	writeMu    sync.Mutex
	lastWrite  atomic.Pointer[WriteReport]
	loadReport LoadReport
}

func (e *engine) State() State {
	return State(e.state.Load())
}

func (e *engine) setState(s State) {
	e.state.Store(int32(s))
}

// resolve validates opts and locates the storage channel.
func (e *engine) resolve(ctx context.Context, opts Options) error {
	if err := opts.applyDefaults(ctx); err != nil {
		return err
	}
	e.opts = opts
	e.setState(StateLoading)

	ref, err := channel.NewResolver(opts.Provider, opts.Logger).FindOrCreate(ctx, opts.Workspace, opts.Channel)
	if err != nil {
		return err
	}
	e.ref = ref
	e.logger = opts.Logger.With("channel", ref.String())
	return nil
}

func (e *engine) loadOptions() LoadOptions {
	return LoadOptions{
		PageLimit: e.opts.PageLimit,
		Sealer:    e.opts.Sealer,
		Logger:    e.opts.Logger,
		Metrics:   e.opts.Metrics,
	}
}

// write encodes the current map and replaces the channel content with it.
func (e *engine) write(ctx context.Context, encode func() (string, int, error)) error {
	if e.State() != StateReady {
		return domain.ErrStoreNotReady
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if e.opts.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.WriteTimeout)
		defer cancel()
	}

	start := time.Now()
	text, entries, err := encode()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if e.opts.Sealer != nil {
		if text, err = e.opts.Sealer.Seal(text); err != nil {
			return fmt.Errorf("seal snapshot: %w", err)
		}
	}

	chunks := snapshot.Chunk(text, e.opts.RecordLimit)
	if len(chunks) > e.opts.PageLimit {
		e.logger.Warn("snapshot exceeds page limit, it will not load back",
			"chunks", len(chunks),
			"page_limit", e.opts.PageLimit)
	}

	report, err := e.opts.Persister.Persist(ctx, e.ref, chunks)
	report.Entries = entries
	report.Bytes = len(text)
	report.Duration = time.Since(start)
	report.At = time.Now()
	e.lastWrite.Store(&report)
	e.opts.Metrics.ObserveWrite(report.Duration, report.Deleted, report.Appended, report.Bytes, err)

	if err != nil {
		attrs := []any{
			"entries", report.Entries,
			"deleted", report.Deleted,
			"appended", report.Appended,
			"chunks", report.Chunks,
			"error", err,
		}
		var pwe *domain.PartialWriteError
		if errors.As(err, &pwe) {
			attrs = append(attrs, "phase", string(pwe.Phase), "consistent", pwe.Consistent())
		}
		e.logger.Error("write failed", attrs...)
		return fmt.Errorf("write %s: %w", e.ref, err)
	}

	e.logger.Info("write completed",
		"entries", report.Entries,
		"bytes", report.Bytes,
		"deleted", report.Deleted,
		"appended", report.Appended,
		"duration", report.Duration)
	return nil
}

// Channel returns the storage channel. It is nil before Open completes.
func (e *engine) Channel() *channel.Ref {
	return e.ref
}

// LastWrite returns the report of the most recent Write, successful or not.
func (e *engine) LastWrite() (WriteReport, bool) {
	r := e.lastWrite.Load()
	if r == nil {
		return WriteReport{}, false
	}
	return *r, true
}

// LoadReport returns what was found in the channel when the store opened.
func (e *engine) LoadReport() LoadReport {
	return e.loadReport
}
