package channel

import (
	"context"

	"github.com/yndnr/chanstore/internal/telemetry/metric"
)

type instrumented struct {
	next    Provider
	metrics *metric.Metrics
}

// Instrumented wraps p so that every call is counted in
// chanstore_provider_requests_total. A nil m returns p unchanged.
func Instrumented(p Provider, m *metric.Metrics) Provider {
	if m == nil {
		return p
	}
	return &instrumented{next: p, metrics: m}
}

func (i *instrumented) ListChannels(ctx context.Context, workspace string) ([]Ref, error) {
	refs, err := i.next.ListChannels(ctx, workspace)
	i.metrics.ObserveProvider(OpListChannels, err)
	return refs, err
}

func (i *instrumented) CreateChannel(ctx context.Context, workspace string, spec CreateSpec) (*Ref, error) {
	ref, err := i.next.CreateChannel(ctx, workspace, spec)
	i.metrics.ObserveProvider(OpCreateChannel, err)
	return ref, err
}

func (i *instrumented) ListRecent(ctx context.Context, ch *Ref, limit int) ([]Record, error) {
	recs, err := i.next.ListRecent(ctx, ch, limit)
	i.metrics.ObserveProvider(OpListRecent, err)
	return recs, err
}

func (i *instrumented) Append(ctx context.Context, ch *Ref, body string) (*Record, error) {
	rec, err := i.next.Append(ctx, ch, body)
	i.metrics.ObserveProvider(OpAppend, err)
	return rec, err
}

func (i *instrumented) Delete(ctx context.Context, ch *Ref, recordID string) error {
	err := i.next.Delete(ctx, ch, recordID)
	i.metrics.ObserveProvider(OpDelete, err)
	return err
}
