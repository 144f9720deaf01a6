package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/chanstore/internal/channel"
	"github.com/yndnr/chanstore/internal/channel/badgerchan"
	"github.com/yndnr/chanstore/internal/channel/memchan"
	"github.com/yndnr/chanstore/internal/cli/output"
	"github.com/yndnr/chanstore/internal/config"
	"github.com/yndnr/chanstore/internal/infra/shutdown"
	"github.com/yndnr/chanstore/internal/storage"
	"github.com/yndnr/chanstore/internal/storage/snapshot"
	"github.com/yndnr/chanstore/internal/telemetry/logger"
	"github.com/yndnr/chanstore/internal/telemetry/metric"
)

const envKey = "chanstore.env"

// Env is what every command needs: configuration, logging, output and
// cleanup.
type Env struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *metric.Metrics
	Format   output.Format
	Shutdown *shutdown.Handler

	out io.Writer
}

func newEnv(c *cli.Context) (*Env, error) {
	cfg, err := config.Load(c.String("config"), flagOverrides(c))
	if err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("configuration loaded", "config", config.Sanitize(cfg))

	return &Env{
		Config:   cfg,
		Logger:   log,
		Metrics:  metric.New(prometheus.NewRegistry()),
		Format:   format,
		Shutdown: shutdown.NewHandler(shutdownTimeout),
		out:      c.App.Writer,
	}, nil
}

// envFrom returns the Env built by the App's Before hook.
func envFrom(c *cli.Context) (*Env, error) {
	env, ok := c.App.Metadata[envKey].(*Env)
	if !ok {
		return nil, fmt.Errorf("command environment not initialised")
	}
	return env, nil
}

// Print renders data in the selected output format.
func (e *Env) Print(data any) error {
	return output.NewFormatter(e.Format).Format(e.out, data)
}

// Provider builds the configured channel provider. Its cleanup is
// registered with the shutdown handler.
func (e *Env) Provider() (channel.Provider, error) {
	var p channel.Provider

	switch e.Config.Provider.Kind {
	case config.ProviderMemory:
		p = memchan.New(memchan.WithRecordLimit(e.Config.Store.RecordLimit))
	default:
		bc := badgerchan.DefaultConfig(e.Config.Provider.Badger.Dir)
		bc.SyncWrites = e.Config.Provider.Badger.SyncWrites
		bc.GCInterval = e.Config.Provider.Badger.GCInterval
		bc.RecordLimit = e.Config.Store.RecordLimit

		bp, err := badgerchan.Open(bc, e.Logger)
		if err != nil {
			return nil, err
		}
		e.Shutdown.OnClose(bp.Close)
		p = bp
	}

	rl := e.Config.Provider.RateLimit
	p = channel.RateLimited(p, rl.RPS, rl.Burst)
	return channel.Instrumented(p, e.Metrics), nil
}

// OpenStore opens the configured storage channel. The store logs through
// the logger carried by ctx.
func (e *Env) OpenStore(ctx context.Context) (*storage.DynamicStore[string], error) {
	p, err := e.Provider()
	if err != nil {
		return nil, err
	}

	var sealer *snapshot.Sealer
	if e.Config.Seal.Passphrase != "" {
		sealer, err = snapshot.NewSealer(e.Config.Seal.Passphrase, e.Config.Seal.Cipher)
		if err != nil {
			return nil, fmt.Errorf("seal: %w", err)
		}
	}

	return storage.OpenDynamic[string](ctx, storage.Options{
		Provider:     p,
		Workspace:    e.Config.Store.Workspace,
		Channel:      e.Config.Store.Channel,
		PageLimit:    e.Config.Store.PageLimit,
		RecordLimit:  e.Config.Store.RecordLimit,
		Sealer:       sealer,
		WriteTimeout: e.Config.Store.WriteTimeout,
		Metrics:      e.Metrics,
	})
}

// openFrom combines envFrom and OpenStore.
func openFrom(c *cli.Context) (*Env, *storage.DynamicStore[string], error) {
	env, err := envFrom(c)
	if err != nil {
		return nil, nil, err
	}
	s, err := env.OpenStore(c.Context)
	if err != nil {
		return nil, nil, err
	}
	return env, s, nil
}
