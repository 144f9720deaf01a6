package config

import "time"

// Provider kinds.
const (
	ProviderBadger = "badger"
	ProviderMemory = "memory"
)

// Config is the root chanstore configuration.
type Config struct {
	Store    StoreSection    `koanf:"store"`
	Provider ProviderSection `koanf:"provider"`
	Seal     SealSection     `koanf:"seal"`
	Log      LogSection      `koanf:"log"`
}

// StoreSection locates the storage channel and bounds its records.
type StoreSection struct {
	Workspace    string        `koanf:"workspace"`
	Channel      string        `koanf:"channel"`
	PageLimit    int           `koanf:"page_limit"`
	RecordLimit  int           `koanf:"record_limit"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// ProviderSection selects and tunes the channel provider.
type ProviderSection struct {
	// Kind is badger or memory.
	Kind      string          `koanf:"kind"`
	Badger    BadgerConfig    `koanf:"badger"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// BadgerConfig configures the local durable provider.
type BadgerConfig struct {
	Dir        string        `koanf:"dir"`
	SyncWrites bool          `koanf:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// RateLimitConfig spaces provider calls. RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

// SealSection configures at-rest sealing of snapshots. An empty
// passphrase stores plain snapshots.
type SealSection struct {
	Passphrase string `koanf:"passphrase"`
	Cipher     string `koanf:"cipher"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
