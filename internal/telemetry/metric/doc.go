// Package metric provides Prometheus metrics for chanstore.
//
// Metrics are registered on a caller-supplied prometheus.Registerer so
// that tests and embedders can keep isolated registries. A nil *Metrics is
// valid and records nothing.
package metric
