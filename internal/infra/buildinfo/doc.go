// Package buildinfo exposes the chanstore build identity.
//
// Values are injected at build time:
//
//	go build -ldflags "-X github.com/yndnr/chanstore/internal/infra/buildinfo.Version=v0.3.0 \
//	  -X github.com/yndnr/chanstore/internal/infra/buildinfo.Commit=abc123"
//
// When they are not, Get falls back to the module build information
// embedded by the Go toolchain.
package buildinfo
