// Package logger builds the chanstore *slog.Logger.
//
//   - logger.go: handler selection (JSON or text) and the shared level
//   - redact.go: masking of passphrases and other secrets in attributes
//   - context.go: carrying a logger through a context.Context
package logger
