// Package cmap provides a concurrent-safe sharded map.
//
// Keys are spread over a power-of-two number of shards, each guarded by its
// own RWMutex, which keeps lock contention low when many goroutines touch
// unrelated keys. The in-process channel provider keeps its channel and
// record tables in these maps.
package cmap
