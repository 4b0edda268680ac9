package server

import (
	"net/http"

	"github.com/charmbracelet/log"
)

// Dependencies are the services the API is built from.
type Dependencies struct {
	Tokens    TokenService
	Ingestor  IngestService
	Accounts  AccountService
	Snapshots SnapshotReader
	Store     Pinger
}

// Options tune the middleware stack.
type Options struct {
	CORSOrigins []string
	Sentry      bool
}

// NewRouter assembles the API.
//
// CORS wraps the whole router so preflight requests are answered before route
// matching; the remaining middleware wraps each route.
func NewRouter(deps Dependencies, opts Options, logger *log.Logger) http.Handler {
	router := NewBasicRouter()

	useMiddleware(router, opts, logger)

	router.Handler(NewHealthHandler(deps.Store, logger))
	router.Handler(NewSpotifyHandler(deps.Tokens, deps.Ingestor, logger))
	router.Handler(NewUserHandler(deps.Accounts, deps.Snapshots, deps.Store, logger))

	return CORS(opts.CORSOrigins)(router)
}

// useMiddleware registers the per-route stack, outermost first.
func useMiddleware(router *BasicRouter, opts Options, logger *log.Logger) {
	router.Use(Recover(logger))
	if opts.Sentry {
		router.Use(Sentry())
	}
	router.Use(AccessLog(logger))
}
