// Package command provides the chanstore command-line tool.
//
// It uses urfave/cli/v2. Every command opens the configured storage
// channel, performs one operation and closes the provider again:
//
//   - get, set, del, list: read and edit entries
//   - sync: rewrite the channel from the loaded map
//   - info: show the channel and what the last load found
package command
