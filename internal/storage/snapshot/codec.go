package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/yndnr/chanstore/internal/core/domain"
)

const (
	// Format tags plain snapshots.
	Format = "chanstore/snapshot"

	// Version is the schema version written by Encode.
	Version = 1
)

// Entry is one key/value pair of a snapshot.
type Entry[K comparable, V any] struct {
	Key   K `json:"k"`
	Value V `json:"v"`
}

type envelope[K comparable, V any] struct {
	Format  string        `json:"format"`
	Version int           `json:"version"`
	Entries []Entry[K, V] `json:"entries"`
}

// Encode serializes entries. The caller supplies them in key order.
//
// Encode refuses entries that Decode could not return unchanged, such as
// strings that are not valid UTF-8. See CheckEntry.
func Encode[K comparable, V any](entries []Entry[K, V]) (string, error) {
	if entries == nil {
		entries = []Entry[K, V]{}
	}
	data, err := json.Marshal(envelope[K, V]{
		Format:  Format,
		Version: Version,
		Entries: entries,
	})
	if err != nil {
		return "", fmt.Errorf("snapshot: encode: %w", err)
	}
	for i := range entries {
		if err := walkStrings(reflect.ValueOf(entries[i]), ""); err != nil {
			return "", fmt.Errorf("snapshot: encode key %v: %w", entries[i].Key, err)
		}
	}
	return string(data), nil
}

// Decode parses text produced by Encode. Every failure is reported as
// domain.ErrSnapshotMalformed.
func Decode[K comparable, V any](text string) ([]Entry[K, V], error) {
	if text == "" {
		return nil, malformed(errors.New("empty text"))
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	var env envelope[K, V]
	if err := dec.Decode(&env); err != nil {
		return nil, malformed(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, malformed(errors.New("trailing data after snapshot"))
	}

	if env.Format != Format {
		return nil, malformed(fmt.Errorf("unexpected format %q", env.Format))
	}
	if env.Version != Version {
		return nil, malformed(fmt.Errorf("unsupported version %d", env.Version))
	}

	seen := make(map[K]struct{}, len(env.Entries))
	for _, e := range env.Entries {
		if _, dup := seen[e.Key]; dup {
			return nil, malformed(fmt.Errorf("duplicate key %v", e.Key))
		}
		seen[e.Key] = struct{}{}
	}
	return env.Entries, nil
}

func malformed(cause error) error {
	return domain.ErrSnapshotMalformed.Wrap(cause)
}
