// Package config provides chanstore configuration.
//
//   - spec.go: Config struct definition
//   - default.go: default values
//   - verify.go: validation
//   - sanitize.go: masking secrets before logging
//   - load.go: layered loading through internal/infra/confloader
package config
