package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

// SpotifyAuth returns the stored provider auth for the user with id.
//
// Unknown users and users that never linked Spotify both fail with [shared.ErrNotLinked].
func (r *UserRepository) SpotifyAuth(ctx context.Context, id string) (*models.SpotifyAuth, error) {
	if !shared.IsValidID(id) {
		return nil, fmt.Errorf("%w: user %s", shared.ErrNotLinked, id)
	}

	query := `
		SELECT spotify_access_token, spotify_refresh_token, spotify_token_type, spotify_scope,
			spotify_expires_in, spotify_expires_at, spotify_updated_at
		FROM users
		WHERE id = ?
	`
	var (
		access, refresh, tokenType, scope sql.NullString
		expiresAt, updatedAt              sql.NullString
		expiresIn                         sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&access, &refresh, &tokenType, &scope, &expiresIn, &expiresAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", shared.ErrNotLinked, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query spotify auth: %w", err)
	}
	if !updatedAt.Valid {
		return nil, fmt.Errorf("%w: user %s", shared.ErrNotLinked, id)
	}

	auth := &models.SpotifyAuth{
		AccessToken:  access.String,
		RefreshToken: refresh.String,
		TokenType:    tokenType.String,
		Scope:        scope.String,
		ExpiresIn:    expiresIn.Int64,
		ExpiresAt:    expiresAt.String,
	}
	if auth.UpdatedAt, err = shared.ParseTimestamp(updatedAt.String); err != nil {
		return nil, err
	}
	return auth, nil
}

// MergeSpotifyAuth writes auth onto the user's stored record and bumps the user's updated_at.
//
// Empty string fields keep the stored value, so a refresh without a new refresh
// token or without an expiry leaves the previous one in place. ExpiresIn and
// UpdatedAt are always written.
func (r *UserRepository) MergeSpotifyAuth(ctx context.Context, id string, auth models.SpotifyAuth) (*models.User, error) {
	if !shared.IsValidID(id) {
		return nil, notFound(id)
	}

	ts := shared.FormatTimestamp(auth.UpdatedAt)
	query := `
		UPDATE users SET
			spotify_access_token = COALESCE(NULLIF(?, ''), spotify_access_token),
			spotify_refresh_token = COALESCE(NULLIF(?, ''), spotify_refresh_token),
			spotify_token_type = COALESCE(NULLIF(?, ''), spotify_token_type),
			spotify_scope = COALESCE(NULLIF(?, ''), spotify_scope),
			spotify_expires_in = ?,
			spotify_expires_at = COALESCE(NULLIF(?, ''), spotify_expires_at),
			spotify_updated_at = ?,
			updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		auth.AccessToken, auth.RefreshToken, auth.TokenType, auth.Scope,
		auth.ExpiresIn, auth.ExpiresAt, ts, ts, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store spotify auth: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return nil, notFound(id)
	}

	return r.Get(ctx, id)
}
