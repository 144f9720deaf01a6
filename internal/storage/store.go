package storage

import (
	"cmp"
	"context"
	"sync"

	"github.com/google/btree"

	"github.com/yndnr/chanstore/internal/core/domain"
	"github.com/yndnr/chanstore/internal/storage/snapshot"
)

const btreeDegree = 16

type item[K cmp.Ordered, V any] struct {
	key   K
	value *V
}

func itemLess[K cmp.Ordered, V any](a, b item[K, V]) bool {
	return cmp.Less(a.key, b.key)
}

// Store is an ordered key-value map persisted into a message channel.
//
// Reads are served from memory. Insert and Remove persist the whole map
// before returning. A Store is safe for concurrent use; values obtained
// through GetMut must not be modified concurrently with Write.
type Store[K cmp.Ordered, V any] struct {
	engine

	mu   sync.RWMutex
	tree *btree.BTreeG[item[K, V]]
}

// Open resolves the storage channel, loads its snapshot and returns a
// ready store. An unreadable snapshot yields an empty store; see
// LoadReport.
func Open[K cmp.Ordered, V any](ctx context.Context, opts Options) (*Store[K, V], error) {
	s := &Store[K, V]{
		tree: btree.NewG(btreeDegree, itemLess[K, V]),
	}
	if err := s.resolve(ctx, opts); err != nil {
		return nil, err
	}

	entries, report, err := Load[K, V](ctx, s.opts.Provider, s.ref, s.loadOptions())
	if err != nil {
		return nil, err
	}
	for i := range entries {
		v := entries[i].Value
		s.tree.ReplaceOrInsert(item[K, V]{key: entries[i].Key, value: &v})
	}
	s.loadReport = report
	s.setState(StateReady)
	return s, nil
}

// Get returns the value stored under key.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero V
	if s.tree == nil {
		return zero, false
	}
	it, ok := s.tree.Get(item[K, V]{key: key})
	if !ok {
		return zero, false
	}
	return *it.value, true
}

// GetMut returns a pointer to the value stored under key. Changes made
// through it stay in memory until the next Write.
func (s *Store[K, V]) GetMut(key K) (*V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tree == nil {
		return nil, false
	}
	it, ok := s.tree.Get(item[K, V]{key: key})
	if !ok {
		return nil, false
	}
	return it.value, true
}

// Insert stores value under key and persists the map. On a write error
// the in-memory map keeps the new value.
//
// A key or value that would not load back unchanged is refused with
// domain.ErrInvalidArgument and the map is left as it was.
func (s *Store[K, V]) Insert(ctx context.Context, key K, value V) error {
	if s.State() != StateReady {
		return domain.ErrStoreNotReady
	}
	if err := snapshot.CheckEntry(key, value); err != nil {
		return err
	}
	s.mu.Lock()
	s.tree.ReplaceOrInsert(item[K, V]{key: key, value: &value})
	s.mu.Unlock()

	return s.Write(ctx)
}

// Remove deletes key and persists the map. Removing an absent key does
// not write.
func (s *Store[K, V]) Remove(ctx context.Context, key K) (bool, error) {
	if s.State() != StateReady {
		return false, domain.ErrStoreNotReady
	}
	s.mu.Lock()
	_, removed := s.tree.Delete(item[K, V]{key: key})
	s.mu.Unlock()

	if !removed {
		return false, nil
	}
	return true, s.Write(ctx)
}

// Len returns the number of keys.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		return 0
	}
	return s.tree.Len()
}

// Keys returns every key in ascending order.
func (s *Store[K, V]) Keys() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		return nil
	}
	keys := make([]K, 0, s.tree.Len())
	s.tree.Ascend(func(it item[K, V]) bool {
		keys = append(keys, it.key)
		return true
	})
	return keys
}

// Ascend calls fn for every entry in ascending key order until fn returns
// false. fn must not call mutating Store methods.
func (s *Store[K, V]) Ascend(fn func(key K, value V) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		return
	}
	s.tree.Ascend(func(it item[K, V]) bool {
		return fn(it.key, *it.value)
	})
}

// Write persists the full map into the channel.
//
// A failed Write may leave the channel without a decodable snapshot; the
// error then is a *domain.PartialWriteError. Calling Write again repairs
// the channel.
func (s *Store[K, V]) Write(ctx context.Context) error {
	return s.write(ctx, s.encode)
}

func (s *Store[K, V]) encode() (string, int, error) {
	s.mu.RLock()
	entries := make([]snapshot.Entry[K, V], 0, s.tree.Len())
	s.tree.Ascend(func(it item[K, V]) bool {
		entries = append(entries, snapshot.Entry[K, V]{Key: it.key, Value: *it.value})
		return true
	})
	s.mu.RUnlock()

	text, err := snapshot.Encode(entries)
	return text, len(entries), err
}
