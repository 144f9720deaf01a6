package storage

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yndnr/chanstore/internal/channel"
	"github.com/yndnr/chanstore/internal/core/domain"
	"github.com/yndnr/chanstore/internal/storage/snapshot"
	"github.com/yndnr/chanstore/internal/telemetry/metric"
)

// LoadOptions configures Load.
type LoadOptions struct {
	// PageLimit is the number of records read back, clamped to
	// channel.MaxPageLimit.
	PageLimit int

	// Sealer opens sealed snapshots. Plain snapshots load without it.
	Sealer *snapshot.Sealer

	Logger  *slog.Logger
	Metrics *metric.Metrics
}

// LoadReport describes what Load found in the channel.
type LoadReport struct {
	Records int // records read
	Bytes   int // joined snapshot text length
	Entries int // decoded entries

	// Fallback is true when the channel content could not be decoded and
	// the store started empty. Reason holds the decode error.
	Fallback bool
	Reason   error

	// Truncated is true when the page came back full, so older records may
	// exist beyond the page limit.
	Truncated bool

	Sealed bool
}

// Load reads the snapshot persisted in ch.
//
// Provider failures are returned. A snapshot that cannot be decoded is not
// an error: Load returns no entries and reports Fallback.
func Load[K cmp.Ordered, V any](ctx context.Context, p channel.Provider, ch *channel.Ref, opts LoadOptions) ([]snapshot.Entry[K, V], LoadReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := channel.ClampLimit(opts.PageLimit)

	records, err := p.ListRecent(ctx, ch, limit)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("load snapshot from %s: %w", ch,
			domain.NewProviderError(channel.OpListRecent, ch.Name, err))
	}

	bodies := make([]string, len(records))
	for i := range records {
		bodies[i] = records[i].Body
	}
	text := snapshot.Join(bodies)

	report := LoadReport{
		Records:   len(records),
		Bytes:     len(text),
		Truncated: len(records) == limit,
	}
	if report.Truncated {
		logger.Warn("snapshot page full, older records may be lost",
			"channel", ch.String(),
			"page_limit", limit)
	}

	if text == "" {
		opts.Metrics.ObserveLoad(0, false)
		logger.Info("snapshot loaded", "channel", ch.String(), "records", 0, "entries", 0)
		return nil, report, nil
	}

	entries, err := decodeText[K, V](text, opts.Sealer, &report)
	if err != nil {
		report.Fallback = true
		report.Reason = err
		opts.Metrics.ObserveLoad(report.Bytes, true)
		logger.Warn("snapshot unreadable, starting with empty store",
			"channel", ch.String(),
			"records", report.Records,
			"bytes", report.Bytes,
			"error", err)
		return nil, report, nil
	}

	report.Entries = len(entries)
	opts.Metrics.ObserveLoad(report.Bytes, false)
	logger.Info("snapshot loaded",
		"channel", ch.String(),
		"records", report.Records,
		"bytes", report.Bytes,
		"entries", report.Entries,
		"sealed", report.Sealed)
	return entries, report, nil
}

func decodeText[K cmp.Ordered, V any](text string, sealer *snapshot.Sealer, report *LoadReport) ([]snapshot.Entry[K, V], error) {
	if snapshot.IsSealed(text) {
		report.Sealed = true
		if sealer == nil {
			return nil, domain.ErrSnapshotMalformed.Wrap(errors.New("snapshot is sealed and no passphrase is configured"))
		}
		opened, err := sealer.Open(text)
		if err != nil {
			return nil, err
		}
		text = opened
	}
	return snapshot.Decode[K, V](text)
}
