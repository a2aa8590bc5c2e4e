package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ericfisherdev/vaultpay/internal/adapter/driven/bankapi"
	keyringadapter "github.com/ericfisherdev/vaultpay/internal/adapter/driven/keyring"
	sqliteadapter "github.com/ericfisherdev/vaultpay/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/vaultpay/internal/application"
	"github.com/ericfisherdev/vaultpay/internal/config"
	"github.com/ericfisherdev/vaultpay/internal/secure"
)

// app is the wired object graph behind every command.
type app struct {
	logger   *slog.Logger
	db       *sqliteadapter.DB
	registry *prometheus.Registry
	sessions *application.SessionStore
	auth     *application.AuthService
	profile  *application.ProfileService
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	// 1. Open database (dual reader/writer with WAL mode) and migrate.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("database ready", "path", db.Path())

	// 2. Key lifecycle and encryption, backed by the platform secret store.
	keys := secure.NewKeyProvider(keyringadapter.NewKeyStore(cfg.KeyringService), cfg.KeyAlias)
	cipher := secure.NewCipher(keys)

	// 3. Session store; warm its cache so requests never wait on storage.
	registry := prometheus.NewRegistry()
	sessions := application.NewSessionStore(sqliteadapter.NewPreferenceRepo(db), cipher, logger, registry)
	if _, ok := sessions.Restore(ctx); ok {
		logger.Debug("session restored")
	}

	// 4. HTTP stack with the bearer augmenter reading the cached token.
	httpClient := bankapi.NewHTTPClient(sessions, bankapi.TransportOptions{
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		RequestTimeout: cfg.RequestTimeout,
		MaxRPS:         cfg.MaxRPS,
		Burst:          2,
	}, logger)
	api, err := bankapi.NewClient(httpClient, cfg.APIBaseURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating api client: %w", err)
	}

	// 5. Services.
	return &app{
		logger:   logger,
		db:       db,
		registry: registry,
		sessions: sessions,
		auth:     application.NewAuthService(api, sessions, logger),
		profile:  application.NewProfileService(api, sessions, logger),
	}, nil
}

func (a *app) close() error {
	return a.db.Close()
}
