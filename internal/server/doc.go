// Package server provides HTTP routing, middleware and handlers for the musicagent API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter]
// implements it on a gorilla/mux router with method matching and path variables.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// The stock stack is recovery, access logging and CORS from gorilla/handlers, plus
// Sentry reporting when a DSN is configured.
//
// # Handler Interface
//
// Handlers implement [Handler] and return their [Route] table, which keeps route
// definitions next to the code serving them:
//   - [SpotifyHandler] : consent redirect, callback, code exchange and ingestion
//   - [UserHandler] : account CRUD, listing and snapshot reads
//   - [HealthHandler] : liveness with a store check
//
// # Link Callback
//
// [LinkHandler] serves a one-shot OAuth callback for the CLI link flow. It validates
// state, exchanges the code, stores the tokens and reports the result on a channel.
//
// # Errors
//
// Every failure is written as {"detail": ...}. Provider rejections keep the provider's
// status code and body; see [WriteError] for the full mapping.
package server
