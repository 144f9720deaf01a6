package config

import "strings"

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for printing configuration without exposing secrets.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg

	if sanitized.Seal.Passphrase != "" {
		sanitized.Seal.Passphrase = maskSecret(sanitized.Seal.Passphrase)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
