// Package storage provides the chanstore storage engine.
//
// A Store keeps an ordered key-value map in memory and persists the whole
// map into a message channel as a sequence of bounded text records.
//
// Architecture:
//
//   - Resolver: finds or provisions the storage channel (package channel)
//   - Loader: reads the most recent page of records and decodes it
//   - Persister: replaces the channel content with the current snapshot
//
// Every mutation is followed by a full rewrite of the channel. Channels
// offer no multi-record transaction, so a failed write can leave the
// channel without a decodable snapshot; see domain.PartialWriteError.
// The next successful write repairs it.
//
// Only the most recent page of records is read back. A snapshot that needs
// more chunks than one page holds loses its oldest chunks and reloads as an
// empty map.
package storage
