package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/musicagent/internal/server"
	"github.com/desertthunder/musicagent/internal/shared"
	"github.com/urfave/cli/v3"
)

// Link runs the consent flow in the browser and stores the resulting tokens on --user.
//
// A one-shot callback server listens on the configured redirect URI until the
// provider redirects back or the link timeout passes.
func (r *Runner) Link(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.ValidateSpotify(); err != nil {
		return err
	}

	redirect, err := url.Parse(config.Credentials.Spotify.RedirectURI)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, config.Credentials.Spotify.RedirectURI)
	}
	callbackPath := redirect.Path
	if callbackPath == "" {
		callbackPath = "/"
	}

	a, err := r.open(ctx, config)
	if err != nil {
		return err
	}
	defer a.db.Close()

	userID := cmd.String("user")
	user, err := a.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	state := shared.GenerateID()
	handler := server.NewLinkHandler(a.tokens, user.ID, state, callbackPath)
	router := server.NewBasicRouter()
	router.Handler(handler)

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to listen for callback on %s: %w", redirect.Host, err)
	}
	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("waiting for spotify callback", "addr", ln.Addr().String(), "path", callbackPath)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down callback server", "error", err)
		}
	}()

	authURL := a.tokens.AuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlain("%s\n", styles.warn.Render("⚠ Could not open browser automatically."))
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", r.linkTimeout)

	timeout := time.NewTimer(r.linkTimeout)
	defer timeout.Stop()

	var result server.LinkResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return fmt.Errorf("callback server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, r.linkTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := result.Error(); err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	r.writePlain("%s Spotify linked for %s\n", styles.ok.Render("✓"), user.Username)
	r.writePlain("%s\n", styles.help.Render("Scopes: "+result.Payload.Scope))
	return r.writePlain("You can now run: musicagent ingest --user %s\n", user.ID)
}
