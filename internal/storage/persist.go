package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/yndnr/chanstore/internal/channel"
	"github.com/yndnr/chanstore/internal/core/domain"
)

// WriteReport describes one persistence attempt.
type WriteReport struct {
	Fetched  int // records listed for deletion
	Deleted  int
	Appended int
	Chunks   int // chunks the snapshot was split into

	Entries  int
	Bytes    int
	Duration time.Duration
	At       time.Time
}

// Persister replaces the content of a channel with a snapshot.
type Persister interface {
	// Persist makes chunks, in order, the live records of ch. The returned
	// report is filled in as far as the attempt got, also on error.
	Persist(ctx context.Context, ch *channel.Ref, chunks []string) (WriteReport, error)
}

// FullRewrite is the baseline Persister: it deletes the current page of
// records and appends every chunk.
//
// A chunk over RecordLimit fails with domain.ErrRecordTooLarge before the
// channel is touched. Provider failures are reported as
// *domain.PartialWriteError. Between the first delete and the last append
// the channel holds no decodable snapshot.
type FullRewrite struct {
	Provider    channel.Provider
	PageLimit   int
	RecordLimit int // defaults to channel.MaxRecordBytes
}

// Persist implements Persister.
func (f *FullRewrite) Persist(ctx context.Context, ch *channel.Ref, chunks []string) (WriteReport, error) {
	report := WriteReport{Chunks: len(chunks)}

	limit := channel.ClampRecordLimit(f.RecordLimit)
	for i, chunk := range chunks {
		if err := channel.CheckBody(chunk, limit); err != nil {
			return report, fmt.Errorf("chunk %d: %w", i, err)
		}
	}

	existing, err := f.Provider.ListRecent(ctx, ch, channel.ClampLimit(f.PageLimit))
	if err != nil {
		return report, f.abort(domain.PhaseFetch, report, channel.OpListRecent, ch, err)
	}
	report.Fetched = len(existing)

	for i := range existing {
		if err := f.Provider.Delete(ctx, ch, existing[i].ID); err != nil {
			return report, f.abort(domain.PhaseDelete, report, channel.OpDelete, ch, err)
		}
		report.Deleted++
	}

	for _, chunk := range chunks {
		if _, err := f.Provider.Append(ctx, ch, chunk); err != nil {
			return report, f.abort(domain.PhaseAppend, report, channel.OpAppend, ch, err)
		}
		report.Appended++
	}

	return report, nil
}

func (f *FullRewrite) abort(phase domain.WritePhase, r WriteReport, op string, ch *channel.Ref, err error) error {
	return &domain.PartialWriteError{
		Phase:    phase,
		Fetched:  r.Fetched,
		Deleted:  r.Deleted,
		Appended: r.Appended,
		Chunks:   r.Chunks,
		Err:      domain.NewProviderError(op, ch.Name, err),
	}
}
