// Package main provides the entry point for chanstore.
//
// chanstore inspects and edits a key-value store whose snapshot lives in a
// workspace message channel:
//
//   - get, set, del and list entries
//   - sync to rewrite the channel from the loaded map
//   - info to show what loading the channel found
//
// Usage:
//
//	chanstore --workspace guild-1 set --type int answer 42
//	chanstore --workspace guild-1 -o json list
//	chanstore -c chanstore.yaml info
package main
