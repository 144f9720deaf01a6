package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/chanstore/internal/infra/buildinfo"
	"github.com/yndnr/chanstore/internal/telemetry/logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "chanstore",
		Usage:    "Inspect and edit a key-value store persisted in a message channel",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			GetCommand(),
			SetCommand(),
			DelCommand(),
			ListCommand(),
			SyncCommand(),
			InfoCommand(),
		},
		Before: setup,
		After:  teardown,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"CHANSTORE_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Badger provider directory (provider.badger.dir)",
		},
		&cli.StringFlag{
			Name:    "workspace",
			Aliases: []string{"w"},
			Usage:   "Workspace that owns the storage channel (store.workspace)",
		},
		&cli.StringFlag{
			Name:  "channel",
			Usage: "Storage channel name (store.channel)",
		},
		&cli.StringFlag{
			Name:  "provider",
			Usage: "Channel provider: badger or memory (provider.kind)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error (log.level)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
	}
}

// flagOverrides maps explicitly set flags to configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	keys := map[string]string{
		"data-dir":  "provider.badger.dir",
		"workspace": "store.workspace",
		"channel":   "store.channel",
		"provider":  "provider.kind",
		"log-level": "log.level",
	}

	overrides := make(map[string]any)
	for flag, key := range keys {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}
	return overrides
}

const shutdownTimeout = 10 * time.Second

func setup(c *cli.Context) error {
	env, err := newEnv(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 2)
	}
	c.App.Metadata[envKey] = env
	c.Context = logger.WithLogger(c.Context, env.Logger)
	return nil
}

func teardown(c *cli.Context) error {
	if env, ok := c.App.Metadata[envKey].(*Env); ok {
		return env.Shutdown.Shutdown()
	}
	return nil
}
