// Package services implements the Spotify token lifecycle, listening-data ingestion and account management.
//
// # Token lifecycle
//
// [TokenManager] wraps an [oauth2.Config] pointed at the Spotify accounts service. It
// builds the consent URL, exchanges authorization codes, refreshes access tokens and
// merges token payloads onto the stored user record. Expiry checks are conservative:
// a missing or unreadable expiry counts as expired.
//
// # Ingestion
//
// [SpotifyAPI] calls the Web API through a resty client behind a rate limiter. Audio
// features are requested in sequential batches of at most [AudioFeaturesBatchSize] ids.
//
// [Ingestor] runs one ingestion pass for a user: load stored auth, refresh when
// expired (persisting before any data call), fetch top tracks, top artists and recently
// played concurrently, then audio features, and store one snapshot.
//
// # Accounts
//
// [AccountService] validates signup and profile input and hashes passwords before
// delegating to the user store.
//
// # Error Handling
//
// Provider rejections surface as [*shared.UpstreamError] carrying the provider's status
// and body. Everything else uses the sentinels from the shared package:
//   - [shared.ErrNotLinked] : no stored Spotify auth for the user
//   - [shared.ErrMissingCredentials] : stored auth has neither access nor refresh token
//   - [shared.ErrUnauthorized] : the access token is expired and cannot be refreshed
//   - [shared.ErrValidation] : request input failed validation
package services
