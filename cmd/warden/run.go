// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/warden/cmd/warden/cli"
	"github.com/bureau-foundation/warden/internal/admin"
	"github.com/bureau-foundation/warden/internal/bot"
	"github.com/bureau-foundation/warden/lib/clock"
	"github.com/bureau-foundation/warden/lib/config"
	"github.com/bureau-foundation/warden/lib/httpserver"
	"github.com/bureau-foundation/warden/lib/logging"
	"github.com/bureau-foundation/warden/lib/metrics"
	"github.com/bureau-foundation/warden/lib/version"
)

func runCommand() *cli.Command {
	var configPath string
	return &cli.Command{
		Name:    "run",
		Summary: "Connect to the homeserver and answer commands",
		Description: `Run the bot until interrupted.

The bot syncs with the homeserver, accepts invites from trusted users,
and answers messages that start with the configured prefix. When
metrics.listen is set, Prometheus metrics are served at /metrics and
sync health at /healthz.`,
		Usage: "warden run [--config path]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			addConfigFlag(flagSet, &configPath)
			return flagSet
		},
		Run: func(ctx context.Context, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, logCloser, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.New(registry)

	session, err := connect(ctx, cfg, logger, recorder)
	if err != nil {
		return err
	}
	defer session.Close()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	realClock := clock.Real()
	commands := admin.New(admin.Config{
		Session:       session,
		Store:         store,
		Logger:        logger,
		Metrics:       recorder,
		Clock:         realClock,
		Admins:        cfg.Admin.Admins,
		MinPowerLevel: cfg.Admin.MinPowerLevel,
		PurgeRate:     cfg.Admin.PurgeRate,
		AliasServer:   cfg.Admin.AliasServer,
	})

	autoJoin := cfg.Admin.AutoJoinFrom
	if len(autoJoin) == 0 {
		autoJoin = cfg.Admin.Admins
	}
	health := httpserver.NewHealth(2*cfg.Sync.Timeout+cfg.Sync.MaxBackoff, realClock)
	warden, err := bot.New(bot.Config{
		Session:        session,
		Admin:          commands,
		Prefix:         cfg.Admin.Prefix,
		AutoJoinFrom:   autoJoin,
		CommandTimeout: cfg.Admin.CommandTimeout,
		SyncTimeout:    cfg.Sync.Timeout,
		MaxBackoff:     cfg.Sync.MaxBackoff,
		Observer:       health,
		Metrics:        recorder,
		Clock:          realClock,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	logger.Info("warden starting",
		"version", version.Info(),
		"user_id", session.UserID(),
		"store", cfg.Store.Backend,
		"prefix", cfg.Admin.Prefix,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return warden.Run(groupCtx) })
	if cfg.Metrics.Listen != "" {
		server := httpserver.New(httpserver.Config{
			Address: cfg.Metrics.Listen,
			Handler: httpserver.Mux(metrics.Handler(registry), health),
			Logger:  logger,
		})
		group.Go(func() error { return server.Serve(groupCtx) })
	}

	err = group.Wait()
	logger.Info("warden stopped")
	return err
}
