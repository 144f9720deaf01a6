package config

import (
	"time"

	"github.com/yndnr/chanstore/internal/channel"
)

// Default configuration values.
const (
	DefaultPageLimit    = channel.MaxPageLimit
	DefaultRecordLimit  = channel.MaxRecordBytes
	DefaultWriteTimeout = 30 * time.Second

	DefaultProviderKind     = ProviderBadger
	DefaultBadgerDir        = "data"
	DefaultBadgerGCInterval = 10 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Store: StoreSection{
			Channel:      channel.DefaultName,
			PageLimit:    DefaultPageLimit,
			RecordLimit:  DefaultRecordLimit,
			WriteTimeout: DefaultWriteTimeout,
		},
		Provider: ProviderSection{
			Kind: DefaultProviderKind,
			Badger: BadgerConfig{
				Dir:        DefaultBadgerDir,
				GCInterval: DefaultBadgerGCInterval,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// DefaultMap returns Default as dotted koanf keys.
func DefaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"store.workspace":             d.Store.Workspace,
		"store.channel":               d.Store.Channel,
		"store.page_limit":            d.Store.PageLimit,
		"store.record_limit":          d.Store.RecordLimit,
		"store.write_timeout":         d.Store.WriteTimeout.String(),
		"provider.kind":               d.Provider.Kind,
		"provider.badger.dir":         d.Provider.Badger.Dir,
		"provider.badger.sync_writes": d.Provider.Badger.SyncWrites,
		"provider.badger.gc_interval": d.Provider.Badger.GCInterval.String(),
		"provider.rate_limit.rps":     d.Provider.RateLimit.RPS,
		"provider.rate_limit.burst":   d.Provider.RateLimit.Burst,
		"seal.passphrase":             d.Seal.Passphrase,
		"seal.cipher":                 d.Seal.Cipher,
		"log.level":                   d.Log.Level,
		"log.format":                  d.Log.Format,
	}
}
