// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/bureau-foundation/warden/lib/config"
	"github.com/bureau-foundation/warden/lib/memberstore"
	"github.com/bureau-foundation/warden/lib/metrics"
	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/lib/version"
	"github.com/bureau-foundation/warden/messaging"
)

// addConfigFlag registers --config. An empty path falls back to
// WARDEN_CONFIG.
func addConfigFlag(flagSet *pflag.FlagSet, path *string) {
	flagSet.StringVarP(path, "config", "c", "", "path to warden.yaml (default $WARDEN_CONFIG)")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// connect reads the credential file and returns a verified session.
// Every request is paced by the configured limiter and counted in
// recorder.
func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger, recorder *metrics.Metrics) (*messaging.DirectSession, error) {
	credentials, err := config.ReadCredentials(cfg.Matrix.CredentialFile)
	if err != nil {
		return nil, err
	}
	userID, err := ref.ParseUserID(credentials.UserID)
	if err != nil {
		return nil, fmt.Errorf("credential file %s: %w", cfg.Matrix.CredentialFile, err)
	}

	var limiter *rate.Limiter
	if cfg.Matrix.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Matrix.RequestsPerSecond), cfg.Matrix.Burst)
	}

	// Long polls hold the connection for the sync timeout, so the
	// client timeout must outlast it.
	timeout := max(cfg.Matrix.RequestTimeout, cfg.Sync.Timeout+cfg.Matrix.RequestTimeout)
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: credentials.HomeserverURL,
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: recorder.InstrumentTransport(http.DefaultTransport),
		},
		Logger:    logger,
		Limiter:   limiter,
		UserAgent: version.UserAgent(),
	})
	if err != nil {
		return nil, err
	}

	session, err := client.SessionFromToken(userID, credentials.AccessToken)
	if err != nil {
		return nil, err
	}
	whoami, err := session.WhoAmI(ctx)
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("verifying access token: %w", err)
	}
	if whoami != userID {
		session.Close()
		return nil, fmt.Errorf("access token belongs to %s, credential file says %s", whoami, userID)
	}
	return session, nil
}

// openStore opens the configured member cache.
func openStore(ctx context.Context, cfg config.StoreConfig) (memberstore.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return memberstore.NewMemory(), nil
	case "valkey":
		store, err := memberstore.NewValkey(memberstore.ValkeyConfig{
			Addr:      cfg.Addr,
			Username:  cfg.Username,
			Password:  cfg.Password,
			DB:        cfg.DB,
			UseTLS:    cfg.TLS,
			KeyPrefix: cfg.KeyPrefix,
			TTL:       cfg.TTL,
		})
		if err != nil {
			return nil, err
		}
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("member store: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
