package storage_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/chanstore/internal/channel"
	"github.com/yndnr/chanstore/internal/channel/badgerchan"
	"github.com/yndnr/chanstore/internal/channel/memchan"
	"github.com/yndnr/chanstore/internal/core/domain"
	"github.com/yndnr/chanstore/internal/storage"
	"github.com/yndnr/chanstore/internal/storage/snapshot"
)

func newChannel(t *testing.T, p channel.Provider) *channel.Ref {
	t.Helper()
	ref, err := channel.NewResolver(p, nil).FindOrCreate(context.Background(), workspace, channel.DefaultName)
	require.NoError(t, err)
	return ref
}

func TestLoad_JoinsChunksInOrder(t *testing.T) {
	p := memchan.New()
	ctx := context.Background()
	ref := newChannel(t, p)

	text, err := snapshot.Encode([]snapshot.Entry[string, int]{{Key: "a", Value: 1}, {Key: "b", Value: 2}})
	require.NoError(t, err)
	for _, c := range snapshot.Chunk(text, 10) {
		_, err := p.Append(ctx, ref, c)
		require.NoError(t, err)
	}

	entries, report, err := storage.Load[string, int](ctx, p, ref, storage.LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []snapshot.Entry[string, int]{{Key: "a", Value: 1}, {Key: "b", Value: 2}}, entries)
	assert.Equal(t, len(text), report.Bytes)
	assert.False(t, report.Truncated)
}

func TestLoad_TruncatedPage(t *testing.T) {
	p := memchan.New()
	ctx := context.Background()
	ref := newChannel(t, p)

	for i := 0; i < 5; i++ {
		_, err := p.Append(ctx, ref, "x")
		require.NoError(t, err)
	}

	entries, report, err := storage.Load[string, int](ctx, p, ref, storage.LoadOptions{PageLimit: 3})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 3, report.Records)
	assert.True(t, report.Truncated)
	assert.True(t, report.Fallback)
}

func TestFullRewrite_Persist(t *testing.T) {
	p := memchan.New()
	ctx := context.Background()
	ref := newChannel(t, p)

	for _, body := range []string{"old-1", "old-2"} {
		_, err := p.Append(ctx, ref, body)
		require.NoError(t, err)
	}

	fr := &storage.FullRewrite{Provider: p}
	report, err := fr.Persist(ctx, ref, []string{"new-1", "new-2", "new-3"})
	require.NoError(t, err)
	assert.Equal(t, storage.WriteReport{Fetched: 2, Deleted: 2, Appended: 3, Chunks: 3}, report)

	var bodies []string
	for _, r := range p.Records(ref) {
		bodies = append(bodies, r.Body)
	}
	assert.Equal(t, []string{"new-1", "new-2", "new-3"}, bodies)
}

func TestFullRewrite_EmptySnapshotClearsChannel(t *testing.T) {
	p := memchan.New()
	ctx := context.Background()
	ref := newChannel(t, p)
	_, err := p.Append(ctx, ref, "old")
	require.NoError(t, err)

	_, err = (&storage.FullRewrite{Provider: p}).Persist(ctx, ref, nil)
	require.NoError(t, err)
	assert.Empty(t, p.Records(ref))
}

// stallingProvider blocks appends until the context ends.
type stallingProvider struct {
	*memchan.Provider
}

func (s stallingProvider) Append(ctx context.Context, _ *channel.Ref, _ string) (*channel.Record, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStore_WriteTimeout(t *testing.T) {
	opts := options(stallingProvider{memchan.New()})
	opts.WriteTimeout = 20 * time.Millisecond
	s := openStore[int](t, opts)

	err := s.Insert(context.Background(), "k", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var pwe *domain.PartialWriteError
	require.ErrorAs(t, err, &pwe)
	assert.Equal(t, domain.PhaseAppend, pwe.Phase)
}

// recordingPersister captures chunks instead of writing them.
type recordingPersister struct {
	chunks [][]string
	err    error
}

func (r *recordingPersister) Persist(_ context.Context, _ *channel.Ref, chunks []string) (storage.WriteReport, error) {
	r.chunks = append(r.chunks, chunks)
	return storage.WriteReport{Chunks: len(chunks)}, r.err
}

func TestStore_CustomPersister(t *testing.T) {
	rec := &recordingPersister{}
	opts := options(memchan.New())
	opts.Persister = rec
	s := openStore[string](t, opts)

	require.NoError(t, s.Insert(context.Background(), "k", "v"))
	require.Len(t, rec.chunks, 1)

	entries, err := snapshot.Decode[string, string](snapshot.Join(rec.chunks[0]))
	require.NoError(t, err)
	assert.Equal(t, []snapshot.Entry[string, string]{{Key: "k", Value: "v"}}, entries)

	rec.err = errors.New("nope")
	assert.Error(t, s.Insert(context.Background(), "k2", "v"))
	report, ok := s.LastWrite()
	require.True(t, ok)
	assert.Equal(t, 2, report.Entries)
}

func TestStore_Sealed(t *testing.T) {
	p := memchan.New()
	ctx := context.Background()

	sealer, err := snapshot.NewSealer("correct horse battery", "")
	require.NoError(t, err)
	opts := options(p)
	opts.Sealer = sealer

	s := openStore[account](t, opts)
	require.NoError(t, s.Insert(ctx, "alice", account{Name: "Alice", Balance: 5}))

	for _, r := range p.Records(s.Channel()) {
		assert.NotContains(t, r.Body, "Alice")
	}

	t.Run("same passphrase", func(t *testing.T) {
		other, err := snapshot.NewSealer("correct horse battery", "")
		require.NoError(t, err)
		o := options(p)
		o.Sealer = other

		acc, ok := openStore[account](t, o).Get("alice")
		require.True(t, ok)
		assert.Equal(t, int64(5), acc.Balance)
	})

	t.Run("wrong passphrase falls back", func(t *testing.T) {
		wrong, err := snapshot.NewSealer("incorrect horse", "")
		require.NoError(t, err)
		o := options(p)
		o.Sealer = wrong

		reopened := openStore[account](t, o)
		assert.Equal(t, 0, reopened.Len())
		assert.True(t, reopened.LoadReport().Fallback)
		assert.True(t, reopened.LoadReport().Sealed)
	})

	t.Run("no passphrase falls back", func(t *testing.T) {
		reopened := openStore[account](t, options(p))
		assert.True(t, reopened.LoadReport().Fallback)
	})
}

func TestStore_PlainSnapshotOpensWithSealer(t *testing.T) {
	p := memchan.New()
	ctx := context.Background()
	require.NoError(t, openStore[int](t, options(p)).Insert(ctx, "a", 1))

	sealer, err := snapshot.NewSealer("correct horse battery", "")
	require.NoError(t, err)
	opts := options(p)
	opts.Sealer = sealer

	s := openStore[int](t, opts)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Insert(ctx, "b", 2))
	assert.True(t, snapshot.IsSealed(p.Records(s.Channel())[0].Body))
}

func TestStore_BadgerProvider(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	p, err := badgerchan.Open(badgerchan.DefaultConfig(dir), nil)
	require.NoError(t, err)

	opts := options(p)
	opts.RecordLimit = 64
	s := openStore[string](t, opts)
	require.NoError(t, s.Insert(ctx, "greeting", strings.Repeat("héllo ", 40)))
	require.NoError(t, s.Insert(ctx, "farewell", "bye"))
	require.NoError(t, p.Close())

	p, err = badgerchan.Open(badgerchan.DefaultConfig(dir), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	reopened := openStore[string](t, options(p))
	assert.Equal(t, []string{"farewell", "greeting"}, reopened.Keys())
	v, _ := reopened.Get("greeting")
	assert.Equal(t, strings.Repeat("héllo ", 40), v)
}
