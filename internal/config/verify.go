package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yndnr/chanstore/internal/channel"
	"github.com/yndnr/chanstore/internal/storage/snapshot"
	"github.com/yndnr/chanstore/internal/telemetry/logger"
	"github.com/yndnr/chanstore/pkg/crypto/adaptive"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyStore(&cfg.Store); err != nil {
		return err
	}
	if err := verifyProvider(&cfg.Provider); err != nil {
		return err
	}
	if err := verifySeal(&cfg.Seal); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyStore(cfg *StoreSection) error {
	if cfg.Workspace == "" {
		return errors.New("store.workspace is required")
	}
	if cfg.Channel == "" {
		return errors.New("store.channel is required")
	}
	if cfg.PageLimit < 1 || cfg.PageLimit > channel.MaxPageLimit {
		return fmt.Errorf("store.page_limit must be between 1 and %d", channel.MaxPageLimit)
	}
	if cfg.RecordLimit < utf8.UTFMax || cfg.RecordLimit > channel.MaxRecordBytes {
		return fmt.Errorf("store.record_limit must be between %d and %d", utf8.UTFMax, channel.MaxRecordBytes)
	}
	if cfg.WriteTimeout < 0 {
		return errors.New("store.write_timeout must not be negative")
	}
	return nil
}

func verifyProvider(cfg *ProviderSection) error {
	switch cfg.Kind {
	case ProviderBadger:
		if cfg.Badger.Dir == "" {
			return errors.New("provider.badger.dir is required")
		}
	case ProviderMemory:
	default:
		return fmt.Errorf("provider.kind must be %s or %s, got %q", ProviderBadger, ProviderMemory, cfg.Kind)
	}
	if cfg.RateLimit.RPS < 0 {
		return errors.New("provider.rate_limit.rps must not be negative")
	}
	if cfg.RateLimit.RPS > 0 && cfg.RateLimit.Burst < 1 {
		return errors.New("provider.rate_limit.burst must be at least 1 when rps is set")
	}
	return nil
}

func verifySeal(cfg *SealSection) error {
	if cfg.Passphrase == "" {
		return nil
	}
	if len(cfg.Passphrase) < snapshot.MinPassphraseLength {
		return fmt.Errorf("seal.passphrase must be at least %d characters", snapshot.MinPassphraseLength)
	}
	if _, err := adaptive.ParseType(cfg.Cipher); err != nil {
		return fmt.Errorf("seal.cipher: %w", err)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text", "console":
		return nil
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.Format)
	}
}
