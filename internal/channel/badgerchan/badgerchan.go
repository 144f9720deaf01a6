// Package badgerchan is a channel.Provider backed by an embedded Badger
// database. It stands in for the remote platform when chanstore runs
// locally: channels survive restarts and records keep their order.
//
// Key layout:
//
//	chan/<workspace>\x00<name>  -> Ref (JSON)
//	cid/<channel-id>            -> Ref (JSON)
//	seq/<channel-id>            -> Badger sequence
//	rec/<channel-id>/<seq:8>    -> Record (JSON)
//	rid/<channel-id>/<ulid>     -> seq (8 bytes)
package badgerchan

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/chanstore/internal/channel"
	"github.com/yndnr/chanstore/internal/core/domain"
)

// Config configures the Badger-backed provider.
type Config struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in RAM; used by tests.
	InMemory bool

	// SyncWrites fsyncs after each write.
	SyncWrites bool

	// GCInterval is the value-log GC period. Zero disables the GC loop.
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC.
	GCThreshold float64

	// RecordLimit is the per-record body limit in bytes.
	RecordLimit int
}

// DefaultConfig returns the default configuration for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
		RecordLimit: channel.MaxRecordBytes,
	}
}

// Provider implements channel.Provider on Badger.
type Provider struct {
	db     *badger.DB
	cfg    Config
	logger *slog.Logger

	seqMu sync.Mutex
	seqs  map[string]*badger.Sequence

	stopCh chan struct{}
	doneCh chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Open opens (or creates) the database and starts the GC loop.
func Open(cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, fmt.Errorf("badgerchan: dir is required")
	}
	if cfg.RecordLimit <= 0 {
		cfg.RecordLimit = channel.MaxRecordBytes
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerchan: open db: %w", err)
	}

	p := &Provider{
		db:     db,
		cfg:    cfg,
		logger: logger,
		seqs:   make(map[string]*badger.Sequence),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		go p.gcLoop()
	} else {
		close(p.doneCh)
	}

	logger.Debug("badger channel provider opened", "dir", cfg.Dir, "in_memory", cfg.InMemory)
	return p, nil
}

func nameKey(workspace, name string) []byte {
	return []byte("chan/" + workspace + "\x00" + name)
}

func workspacePrefix(workspace string) []byte {
	return []byte("chan/" + workspace + "\x00")
}

func idKey(id string) []byte {
	return []byte("cid/" + id)
}

func recordPrefix(chanID string) []byte {
	return []byte("rec/" + chanID + "/")
}

func recordKey(chanID string, seq uint64) []byte {
	k := recordPrefix(chanID)
	return binary.BigEndian.AppendUint64(k, seq)
}

func recordIDKey(chanID, recordID string) []byte {
	return []byte("rid/" + chanID + "/" + recordID)
}

// ListChannels implements channel.Provider.
func (p *Provider) ListChannels(ctx context.Context, workspace string) ([]channel.Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var refs []channel.Ref
	err := p.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = workspacePrefix(workspace)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var ref channel.Ref
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &ref)
			}); err != nil {
				return err
			}
			refs = append(refs, ref)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// CreateChannel implements channel.Provider.
func (p *Provider) CreateChannel(ctx context.Context, workspace string, spec channel.CreateSpec) (*channel.Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ref := channel.Ref{
		ID:         uuid.NewString(),
		Workspace:  workspace,
		Name:       spec.Name,
		Position:   spec.Position,
		Restricted: spec.DenyEveryoneRead,
		CreatedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(ref)
	if err != nil {
		return nil, err
	}

	err = p.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(nameKey(workspace, spec.Name))
		if err == nil {
			return domain.ErrChannelExists.WithDetails(workspace + "/" + spec.Name)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(nameKey(workspace, spec.Name), data); err != nil {
			return err
		}
		return txn.Set(idKey(ref.ID), data)
	})
	if errors.Is(err, badger.ErrConflict) {
		return nil, domain.ErrChannelExists.Wrap(err)
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// ListRecent implements channel.Provider.
func (p *Provider) ListRecent(ctx context.Context, ref *channel.Ref, limit int) ([]channel.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.checkChannel(ref); err != nil {
		return nil, err
	}
	limit = channel.ClampLimit(limit)

	recs := make([]channel.Record, 0, limit)
	err := p.db.View(func(txn *badger.Txn) error {
		prefix := recordPrefix(ref.ID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte(nil), prefix...), 0xff)
		for it.Seek(seek); it.Valid() && len(recs) < limit; it.Next() {
			var rec channel.Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Collected newest first; callers expect chronological order.
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

// Append implements channel.Provider.
func (p *Provider) Append(ctx context.Context, ref *channel.Ref, body string) (*channel.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := channel.CheckBody(body, p.cfg.RecordLimit); err != nil {
		return nil, err
	}
	if err := p.checkChannel(ref); err != nil {
		return nil, err
	}

	seq, err := p.nextSeq(ref.ID)
	if err != nil {
		return nil, err
	}

	rec := channel.Record{
		ID:        ulid.Make().String(),
		Seq:       seq,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], seq)

	err = p.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordKey(ref.ID, seq), data); err != nil {
			return err
		}
		return txn.Set(recordIDKey(ref.ID, rec.ID), seqBuf[:])
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete implements channel.Provider.
func (p *Provider) Delete(ctx context.Context, ref *channel.Ref, recordID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.checkChannel(ref); err != nil {
		return err
	}

	return p.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(recordIDKey(ref.ID, recordID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrRecordNotFound.WithDetails(recordID)
		}
		if err != nil {
			return err
		}
		seqBuf, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if len(seqBuf) != 8 {
			return fmt.Errorf("badgerchan: corrupt record index for %s", recordID)
		}
		if err := txn.Delete(recordKey(ref.ID, binary.BigEndian.Uint64(seqBuf))); err != nil {
			return err
		}
		return txn.Delete(recordIDKey(ref.ID, recordID))
	})
}

func (p *Provider) checkChannel(ref *channel.Ref) error {
	if ref == nil || ref.ID == "" {
		return domain.ErrInvalidArgument.WithDetails("nil channel")
	}
	err := p.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(idKey(ref.ID))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.ErrChannelNotFound.WithDetails(ref.ID)
	}
	return err
}

func (p *Provider) nextSeq(chanID string) (uint64, error) {
	p.seqMu.Lock()
	defer p.seqMu.Unlock()

	seq, ok := p.seqs[chanID]
	if !ok {
		var err error
		seq, err = p.db.GetSequence([]byte("seq/"+chanID), 64)
		if err != nil {
			return 0, fmt.Errorf("badgerchan: sequence: %w", err)
		}
		p.seqs[chanID] = seq
	}

	// Sequences start at 0; records start at 1.
	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// GC runs value-log garbage collection until nothing is left to rewrite.
func (p *Provider) GC(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := p.db.RunValueLogGC(p.cfg.GCThreshold)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("badgerchan: gc: %w", err)
		}
	}
}

func (p *Provider) gcLoop() {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if err := p.GC(ctx); err != nil {
				p.logger.Error("auto gc failed", "error", err)
			}
			cancel()

		case <-p.stopCh:
			return
		}
	}
}

// Close releases sequences, stops the GC loop and closes the database.
// Later calls return the first result.
func (p *Provider) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.close()
	})
	return p.closeErr
}

func (p *Provider) close() error {
	close(p.stopCh)
	<-p.doneCh

	p.seqMu.Lock()
	for id, seq := range p.seqs {
		if err := seq.Release(); err != nil {
			p.logger.Warn("release sequence failed", "channel_id", id, "error", err)
		}
	}
	p.seqs = nil
	p.seqMu.Unlock()

	if err := p.db.Close(); err != nil {
		return fmt.Errorf("badgerchan: close db: %w", err)
	}
	return nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
