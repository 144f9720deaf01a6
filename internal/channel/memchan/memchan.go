// Package memchan is an in-process channel.Provider.
//
// It keeps channels and records in memory, enforces the same page and
// record-size limits as the remote platform, and can inject failures into
// individual operations so that partial writes can be exercised.
package memchan

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/chanstore/internal/channel"
	"github.com/yndnr/chanstore/internal/core/domain"
	"github.com/yndnr/chanstore/pkg/cmap"
)

// Provider is an in-memory channel.Provider. The zero value is not usable;
// call New.
type Provider struct {
	// byName maps workspace+"/"+name to the channel.
	byName *cmap.Map[string, *memChannel]
	// byID maps channel ID to the channel.
	byID *cmap.Map[string, *memChannel]

	recordLimit int

	faultMu sync.Mutex
	faults  map[string]*fault
	calls   map[string]int
}

type memChannel struct {
	ref channel.Ref

	mu      sync.Mutex
	seq     uint64
	records []channel.Record
}

type fault struct {
	skip int
	err  error
}

// Option configures a Provider.
type Option func(*Provider)

// WithRecordLimit overrides the per-record byte limit.
func WithRecordLimit(n int) Option {
	return func(p *Provider) {
		p.recordLimit = n
	}
}

// New creates an empty provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		byName:      cmap.New[string, *memChannel](),
		byID:        cmap.New[string, *memChannel](),
		recordLimit: channel.MaxRecordBytes,
		faults:      make(map[string]*fault),
		calls:       make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FailNext makes the operation op fail with err once, after skip further
// successful calls of that operation.
func (p *Provider) FailNext(op string, skip int, err error) {
	p.faultMu.Lock()
	defer p.faultMu.Unlock()
	p.faults[op] = &fault{skip: skip, err: err}
}

// Calls returns how many times op has been invoked.
func (p *Provider) Calls(op string) int {
	p.faultMu.Lock()
	defer p.faultMu.Unlock()
	return p.calls[op]
}

func (p *Provider) enter(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.faultMu.Lock()
	defer p.faultMu.Unlock()

	p.calls[op]++
	f, ok := p.faults[op]
	if !ok {
		return nil
	}
	if f.skip > 0 {
		f.skip--
		return nil
	}
	delete(p.faults, op)
	return f.err
}

// ListChannels implements channel.Provider.
func (p *Provider) ListChannels(ctx context.Context, workspace string) ([]channel.Ref, error) {
	if err := p.enter(ctx, channel.OpListChannels); err != nil {
		return nil, err
	}

	var refs []channel.Ref
	p.byName.Range(func(_ string, ch *memChannel) bool {
		if ch.ref.Workspace == workspace {
			refs = append(refs, ch.ref)
		}
		return true
	})
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Position != refs[j].Position {
			return refs[i].Position < refs[j].Position
		}
		return refs[i].Name < refs[j].Name
	})
	return refs, nil
}

// CreateChannel implements channel.Provider.
func (p *Provider) CreateChannel(ctx context.Context, workspace string, spec channel.CreateSpec) (*channel.Ref, error) {
	if err := p.enter(ctx, channel.OpCreateChannel); err != nil {
		return nil, err
	}

	ch := &memChannel{
		ref: channel.Ref{
			ID:         uuid.NewString(),
			Workspace:  workspace,
			Name:       spec.Name,
			Position:   spec.Position,
			Restricted: spec.DenyEveryoneRead,
			CreatedAt:  time.Now().UTC(),
		},
	}
	// Index by ID first: a channel visible by name must be reachable by ID.
	p.byID.Set(ch.ref.ID, ch)
	if _, exists := p.byName.GetOrSet(workspace+"/"+spec.Name, ch); exists {
		p.byID.Pop(ch.ref.ID)
		return nil, domain.ErrChannelExists.WithDetails(workspace + "/" + spec.Name)
	}

	ref := ch.ref
	return &ref, nil
}

// ListRecent implements channel.Provider.
func (p *Provider) ListRecent(ctx context.Context, ref *channel.Ref, limit int) ([]channel.Record, error) {
	if err := p.enter(ctx, channel.OpListRecent); err != nil {
		return nil, err
	}
	ch, err := p.lookup(ref)
	if err != nil {
		return nil, err
	}

	limit = channel.ClampLimit(limit)

	ch.mu.Lock()
	defer ch.mu.Unlock()

	start := 0
	if len(ch.records) > limit {
		start = len(ch.records) - limit
	}
	out := make([]channel.Record, len(ch.records)-start)
	copy(out, ch.records[start:])
	return out, nil
}

// Append implements channel.Provider.
func (p *Provider) Append(ctx context.Context, ref *channel.Ref, body string) (*channel.Record, error) {
	if err := p.enter(ctx, channel.OpAppend); err != nil {
		return nil, err
	}
	if err := channel.CheckBody(body, p.recordLimit); err != nil {
		return nil, err
	}
	ch, err := p.lookup(ref)
	if err != nil {
		return nil, err
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.seq++
	rec := channel.Record{
		ID:        ulid.Make().String(),
		Seq:       ch.seq,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	ch.records = append(ch.records, rec)
	return &rec, nil
}

// Delete implements channel.Provider.
func (p *Provider) Delete(ctx context.Context, ref *channel.Ref, recordID string) error {
	if err := p.enter(ctx, channel.OpDelete); err != nil {
		return err
	}
	ch, err := p.lookup(ref)
	if err != nil {
		return err
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	for i := range ch.records {
		if ch.records[i].ID == recordID {
			ch.records = append(ch.records[:i], ch.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrRecordNotFound.WithDetails(recordID)
}

// Records returns every live record of the channel, oldest first, without
// the page limit. It is meant for assertions.
func (p *Provider) Records(ref *channel.Ref) []channel.Record {
	ch, err := p.lookup(ref)
	if err != nil {
		return nil
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return append([]channel.Record(nil), ch.records...)
}

// ChannelCount returns the number of channels across all workspaces.
func (p *Provider) ChannelCount() int {
	return p.byName.Count()
}

func (p *Provider) lookup(ref *channel.Ref) (*memChannel, error) {
	if ref == nil {
		return nil, domain.ErrInvalidArgument.WithDetails("nil channel")
	}
	ch, ok := p.byID.Get(ref.ID)
	if !ok {
		return nil, domain.ErrChannelNotFound.WithDetails(ref.ID)
	}
	return ch, nil
}
