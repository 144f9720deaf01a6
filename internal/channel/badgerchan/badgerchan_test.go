package badgerchan

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/chanstore/internal/channel"
	"github.com/yndnr/chanstore/internal/core/domain"
)

func openInMemory(t *testing.T) *Provider {
	t.Helper()
	p, err := Open(Config{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open(Config{}, nil)
	assert.Error(t, err)
}

func TestCreateAndListChannels(t *testing.T) {
	p := openInMemory(t)
	ctx := context.Background()

	ref, err := p.CreateChannel(ctx, "guild", channel.CreateSpec{Name: "store", DenyEveryoneRead: true})
	require.NoError(t, err)
	assert.True(t, ref.Restricted)

	_, err = p.CreateChannel(ctx, "guild", channel.CreateSpec{Name: "store"})
	assert.ErrorIs(t, err, domain.ErrChannelExists)

	_, err = p.CreateChannel(ctx, "guild-2", channel.CreateSpec{Name: "store"})
	require.NoError(t, err)

	refs, err := p.ListChannels(ctx, "guild")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, ref.ID, refs[0].ID)
	assert.Equal(t, "store", refs[0].Name)
}

func TestRecordsOrderAndPaging(t *testing.T) {
	p := openInMemory(t)
	ctx := context.Background()

	ref, err := p.CreateChannel(ctx, "guild", channel.CreateSpec{Name: "store"})
	require.NoError(t, err)

	for i := 0; i < 300; i++ {
		_, err := p.Append(ctx, ref, fmt.Sprintf("r%03d", i))
		require.NoError(t, err)
	}

	recs, err := p.ListRecent(ctx, ref, 5)
	require.NoError(t, err)
	require.Len(t, recs, 5)
	assert.Equal(t, "r295", recs[0].Body)
	assert.Equal(t, "r299", recs[4].Body)

	recs, err = p.ListRecent(ctx, ref, 0)
	require.NoError(t, err)
	assert.Len(t, recs, channel.MaxPageLimit)
	for i := 1; i < len(recs); i++ {
		assert.Less(t, recs[i-1].Seq, recs[i].Seq)
	}
}

func TestDelete(t *testing.T) {
	p := openInMemory(t)
	ctx := context.Background()

	ref, err := p.CreateChannel(ctx, "guild", channel.CreateSpec{Name: "store"})
	require.NoError(t, err)

	a, err := p.Append(ctx, ref, "a")
	require.NoError(t, err)
	_, err = p.Append(ctx, ref, "b")
	require.NoError(t, err)

	require.NoError(t, p.Delete(ctx, ref, a.ID))
	assert.ErrorIs(t, p.Delete(ctx, ref, a.ID), domain.ErrRecordNotFound)

	recs, err := p.ListRecent(ctx, ref, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "b", recs[0].Body)
}

func TestAppend_Limits(t *testing.T) {
	p, err := Open(Config{InMemory: true, RecordLimit: 4}, nil)
	require.NoError(t, err)
	defer p.Close()
	ctx := context.Background()

	ref, err := p.CreateChannel(ctx, "guild", channel.CreateSpec{Name: "store"})
	require.NoError(t, err)

	_, err = p.Append(ctx, ref, "12345")
	assert.ErrorIs(t, err, domain.ErrRecordTooLarge)

	_, err = p.Append(ctx, &channel.Ref{ID: "ghost"}, "1")
	assert.ErrorIs(t, err, domain.ErrChannelNotFound)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	p, err := Open(DefaultConfig(dir), nil)
	require.NoError(t, err)

	ref, err := p.CreateChannel(ctx, "guild", channel.CreateSpec{Name: "store"})
	require.NoError(t, err)
	_, err = p.Append(ctx, ref, "before")
	require.NoError(t, err)
	require.NoError(t, p.Close())

	p, err = Open(DefaultConfig(dir), nil)
	require.NoError(t, err)
	defer p.Close()

	refs, err := p.ListChannels(ctx, "guild")
	require.NoError(t, err)
	require.Len(t, refs, 1)

	_, err = p.Append(ctx, &refs[0], "after")
	require.NoError(t, err)

	recs, err := p.ListRecent(ctx, &refs[0], 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "before", recs[0].Body)
	assert.Equal(t, "after", recs[1].Body)
}

func TestClose_Twice(t *testing.T) {
	p, err := Open(Config{Dir: t.TempDir(), GCInterval: time.Hour}, nil)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.NotPanics(t, func() {
		assert.NoError(t, p.Close())
	})
}
