package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// LoginScopes are requested on the consent screen.
var LoginScopes = []string{
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// TokenManager exchanges, refreshes and persists Spotify OAuth2 tokens.
type TokenManager struct {
	config *oauth2.Config
	client *http.Client
	store  TokenStore
	now    Clock
}

// NewTokenManager creates a [TokenManager] for the given credentials.
//
// Token endpoint calls go through client, which carries the per-call timeout.
// Empty endpoint URLs in api fall back to the Spotify accounts service.
func NewTokenManager(creds shared.SpotifyConfig, api shared.SpotifyAPIConfig, client *http.Client, store TokenStore) *TokenManager {
	authURL, tokenURL := api.AuthURL, api.TokenURL
	if authURL == "" {
		authURL = spotifyauth.AuthURL
	}
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	if client == nil {
		client = &http.Client{Timeout: api.Timeout()}
	}

	return &TokenManager{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Scopes:       LoginScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client: client,
		store:  store,
		now:    time.Now,
	}
}

// WithClock replaces the manager's time source.
func (m *TokenManager) WithClock(c Clock) *TokenManager {
	m.now = c
	return m
}

// AuthURL returns the consent URL carrying state.
func (m *TokenManager) AuthURL(state string) string {
	return m.config.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a token payload.
func (m *TokenManager) ExchangeCode(ctx context.Context, code string) (*models.TokenPayload, error) {
	tok, err := m.config.Exchange(m.withClient(ctx), code)
	if err != nil {
		return nil, upstreamAuthError("exchange code", err)
	}
	return toPayload(tok), nil
}

// Refresh obtains a new access token from refreshToken.
func (m *TokenManager) Refresh(ctx context.Context, refreshToken string) (*models.TokenPayload, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", shared.ErrUnauthorized)
	}

	src := m.config.TokenSource(m.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, upstreamAuthError("refresh token", err)
	}
	return toPayload(tok), nil
}

// IsExpired reports whether expiresAt is missing, unreadable or not strictly in the future.
func (m *TokenManager) IsExpired(expiresAt string) bool {
	return isExpiredAt(expiresAt, m.now())
}

func isExpiredAt(expiresAt string, now time.Time) bool {
	if expiresAt == "" {
		return true
	}
	t, err := shared.ParseTimestamp(expiresAt)
	if err != nil {
		return true
	}
	return !t.After(now)
}

// Persist merges payload onto the user's stored Spotify auth.
//
// The expiry is stamped from expires_in only when it is positive. A payload without a
// refresh token keeps the stored one, and empty fields never overwrite stored values.
func (m *TokenManager) Persist(ctx context.Context, userID string, payload *models.TokenPayload) (*models.User, error) {
	now := m.now().UTC()
	auth := models.SpotifyAuth{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		TokenType:    payload.TokenType,
		Scope:        payload.Scope,
		ExpiresIn:    max(payload.ExpiresIn, 0),
		UpdatedAt:    now,
	}
	if payload.ExpiresIn > 0 {
		auth.ExpiresAt = shared.FormatTimestamp(now.Add(time.Duration(payload.ExpiresIn) * time.Second))
	}
	return m.store.MergeSpotifyAuth(ctx, userID, auth)
}

func (m *TokenManager) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.client)
}

func toPayload(tok *oauth2.Token) *models.TokenPayload {
	p := &models.TokenPayload{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		p.Scope = scope
	}
	if p.ExpiresIn == 0 {
		switch v := tok.Extra("expires_in").(type) {
		case float64:
			p.ExpiresIn = int64(v)
		case json.Number:
			p.ExpiresIn, _ = v.Int64()
		case string:
			p.ExpiresIn, _ = strconv.ParseInt(v, 10, 64)
		}
	}
	return p
}

func upstreamAuthError(op string, err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		status := http.StatusBadGateway
		if rErr.Response != nil {
			status = rErr.Response.StatusCode
		}
		return &shared.UpstreamError{Kind: shared.KindAuth, Status: status, Body: rErr.Body}
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrUpstreamAuth, op, err)
}
