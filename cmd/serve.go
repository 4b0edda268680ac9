package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/musicagent/internal/server"
	"github.com/getsentry/sentry-go"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := config.ValidateSpotify(); err != nil {
		r.logger.Warn("spotify routes will fail until credentials are configured", "err", err)
	}

	reportErrors := config.Sentry.DSN != ""
	if reportErrors {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              config.Sentry.DSN,
			Environment:      config.Sentry.Environment,
			AttachStacktrace: true,
		}); err != nil {
			return fmt.Errorf("failed to initialize sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	a, err := r.open(ctx, config)
	if err != nil {
		return err
	}
	defer a.db.Close()

	handler := server.NewRouter(server.Dependencies{
		Tokens:    a.tokens,
		Ingestor:  a.ingestor,
		Accounts:  a.accounts,
		Snapshots: a.snapshots,
		Store:     a.users,
	}, server.Options{
		CORSOrigins: config.Server.CORSOrigins,
		Sentry:      reportErrors,
	}, r.logger)

	srv := &http.Server{
		Addr:              config.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, srv, r.logger)
}
