// Command vaultpay is the VaultPay account client. It keeps the session token
// encrypted at rest and attaches it to every API request.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for minimal containers

	"github.com/ericfisherdev/vaultpay/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("ignoring unreadable .env file", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{open: openFromEnv}
	err := c.run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", userMessage(err))
		stop()
		os.Exit(1)
	}
}

// openFromEnv loads configuration, installs the logger and wires the app.
func openFromEnv(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logger.Debug("config loaded",
		"api_base_url", cfg.APIBaseURL,
		"db_path", cfg.DBPath,
		"keyring_service", cfg.KeyringService,
		"max_rps", cfg.MaxRPS,
	)

	return newApp(ctx, cfg, logger)
}
