// Package output renders chanstore CLI results.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned text tables for humans
//   - json.go, yaml.go: machine-readable output
package output
