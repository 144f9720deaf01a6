package storage

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/google/btree"

	"github.com/yndnr/chanstore/internal/core/domain"
	"github.com/yndnr/chanstore/internal/storage/snapshot"
)

// Cell holds one value of a DynamicStore together with its runtime type.
//
// A cell inserted in this process holds the live value. A cell read from
// a snapshot holds the encoded value until it is first read with the
// matching type.
type Cell struct {
	typ   string
	value any
	raw   json.RawMessage
}

// Type returns the runtime type tag of the stored value.
func (c *Cell) Type() string {
	return c.typ
}

// cellWire is the snapshot encoding of a Cell.
type cellWire struct {
	Type  string          `json:"t"`
	Value json.RawMessage `json:"v"`
}

func (c *Cell) wire() (cellWire, error) {
	if c.value == nil {
		return cellWire{Type: c.typ, Value: c.raw}, nil
	}
	raw, err := json.Marshal(c.value)
	if err != nil {
		return cellWire{}, fmt.Errorf("encode %s value: %w", c.typ, err)
	}
	return cellWire{Type: c.typ, Value: raw}, nil
}

// typeName returns a tag that identifies t across processes. Named types
// are qualified by import path, also inside composite types, so []a/x.T and
// []b/x.T get different tags.
func typeName(t reflect.Type) string {
	if t.Name() != "" {
		if t.PkgPath() != "" {
			return t.PkgPath() + "." + t.Name()
		}
		return t.Name()
	}

	switch t.Kind() {
	case reflect.Pointer:
		return "*" + typeName(t.Elem())
	case reflect.Slice:
		return "[]" + typeName(t.Elem())
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + typeName(t.Elem())
	case reflect.Map:
		return "map[" + typeName(t.Key()) + "]" + typeName(t.Elem())
	case reflect.Struct:
		if t.NumField() == 0 {
			return "struct {}"
		}
		fields := make([]string, t.NumField())
		for i := range fields {
			f := t.Field(i)
			fields[i] = f.Name + " " + typeName(f.Type)
			if f.Tag != "" {
				fields[i] += " " + strconv.Quote(string(f.Tag))
			}
		}
		return "struct { " + strings.Join(fields, "; ") + " }"
	default:
		return t.String()
	}
}

type cellItem[K cmp.Ordered] struct {
	key  K
	cell *Cell
}

func cellLess[K cmp.Ordered](a, b cellItem[K]) bool {
	return cmp.Less(a.key, b.key)
}

// DynamicStore is a Store whose values may have different types. Values
// are read back with GetAs.
type DynamicStore[K cmp.Ordered] struct {
	engine

	mu   sync.RWMutex
	tree *btree.BTreeG[cellItem[K]]
}

// OpenDynamic is Open for heterogeneous values.
func OpenDynamic[K cmp.Ordered](ctx context.Context, opts Options) (*DynamicStore[K], error) {
	s := &DynamicStore[K]{
		tree: btree.NewG(btreeDegree, cellLess[K]),
	}
	if err := s.resolve(ctx, opts); err != nil {
		return nil, err
	}

	entries, report, err := Load[K, cellWire](ctx, s.opts.Provider, s.ref, s.loadOptions())
	if err != nil {
		return nil, err
	}
	for i := range entries {
		w := entries[i].Value
		s.tree.ReplaceOrInsert(cellItem[K]{key: entries[i].Key, cell: &Cell{typ: w.Type, raw: w.Value}})
	}
	s.loadReport = report
	s.setState(StateReady)
	return s, nil
}

// Insert stores value under key, tagged with its runtime type, and
// persists the map. Values that would not load back unchanged are refused
// with domain.ErrInvalidArgument.
func (s *DynamicStore[K]) Insert(ctx context.Context, key K, value any) error {
	if s.State() != StateReady {
		return domain.ErrStoreNotReady
	}
	if value == nil {
		return domain.ErrInvalidArgument.WithDetails("nil value has no type")
	}
	if err := snapshot.CheckEntry(key, value); err != nil {
		return err
	}
	cell := &Cell{typ: typeName(reflect.TypeOf(value)), value: value}

	s.mu.Lock()
	s.tree.ReplaceOrInsert(cellItem[K]{key: key, cell: cell})
	s.mu.Unlock()

	return s.Write(ctx)
}

// GetAs returns the value stored under key as a T.
//
// It fails with domain.ErrNotFound when key is absent and with
// domain.ErrWrongType when the value was stored with another type.
func GetAs[T any, K cmp.Ordered](s *DynamicStore[K], key K) (T, error) {
	var zero T
	want := typeName(reflect.TypeFor[T]())

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tree == nil {
		return zero, domain.ErrNotFound
	}
	it, ok := s.tree.Get(cellItem[K]{key: key})
	if !ok {
		return zero, domain.ErrNotFound.WithDetails(fmt.Sprint(key))
	}
	cell := it.cell
	if cell.typ != want {
		return zero, domain.ErrWrongType.WithDetails(fmt.Sprintf("%v holds %s, not %s", key, cell.typ, want))
	}

	if cell.value == nil {
		var v T
		if err := json.Unmarshal(cell.raw, &v); err != nil {
			return zero, domain.ErrWrongType.WithDetails(fmt.Sprintf("%v: stored %s does not decode", key, want)).Wrap(err)
		}
		cell.value = v
		cell.raw = nil
	}
	v, ok := cell.value.(T)
	if !ok {
		return zero, domain.ErrWrongType.WithDetails(fmt.Sprintf("%v holds %T", key, cell.value))
	}
	return v, nil
}

// Has reports whether key is present.
func (s *DynamicStore[K]) Has(key K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		return false
	}
	return s.tree.Has(cellItem[K]{key: key})
}

// TypeOf returns the type tag of the value under key.
func (s *DynamicStore[K]) TypeOf(key K) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		return "", false
	}
	it, ok := s.tree.Get(cellItem[K]{key: key})
	if !ok {
		return "", false
	}
	return it.cell.typ, true
}

// Raw returns the JSON encoding of the value under key, whatever its type.
func (s *DynamicStore[K]) Raw(key K) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		return nil, domain.ErrNotFound
	}
	it, ok := s.tree.Get(cellItem[K]{key: key})
	if !ok {
		return nil, domain.ErrNotFound.WithDetails(fmt.Sprint(key))
	}
	w, err := it.cell.wire()
	if err != nil {
		return nil, err
	}
	return w.Value, nil
}

// Remove deletes key and persists the map. Removing an absent key does
// not write.
func (s *DynamicStore[K]) Remove(ctx context.Context, key K) (bool, error) {
	if s.State() != StateReady {
		return false, domain.ErrStoreNotReady
	}
	s.mu.Lock()
	_, removed := s.tree.Delete(cellItem[K]{key: key})
	s.mu.Unlock()

	if !removed {
		return false, nil
	}
	return true, s.Write(ctx)
}

// Len returns the number of keys.
func (s *DynamicStore[K]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		return 0
	}
	return s.tree.Len()
}

// Keys returns every key in ascending order.
func (s *DynamicStore[K]) Keys() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		return nil
	}
	keys := make([]K, 0, s.tree.Len())
	s.tree.Ascend(func(it cellItem[K]) bool {
		keys = append(keys, it.key)
		return true
	})
	return keys
}

// Write persists the full map into the channel.
func (s *DynamicStore[K]) Write(ctx context.Context) error {
	return s.write(ctx, s.encode)
}

func (s *DynamicStore[K]) encode() (string, int, error) {
	s.mu.RLock()
	entries := make([]snapshot.Entry[K, cellWire], 0, s.tree.Len())
	var err error
	s.tree.Ascend(func(it cellItem[K]) bool {
		var w cellWire
		if w, err = it.cell.wire(); err != nil {
			return false
		}
		entries = append(entries, snapshot.Entry[K, cellWire]{Key: it.key, Value: w})
		return true
	})
	s.mu.RUnlock()
	if err != nil {
		return "", 0, err
	}

	text, err := snapshot.Encode(entries)
	return text, len(entries), err
}
