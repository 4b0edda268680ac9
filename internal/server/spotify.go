package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

// TokenService is the token lifecycle used by the auth routes.
type TokenService interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*models.TokenPayload, error)
	Persist(ctx context.Context, userID string, payload *models.TokenPayload) (*models.User, error)
}

// IngestService runs an ingestion pass.
type IngestService interface {
	Ingest(ctx context.Context, userID string) (*models.SnapshotSummary, error)
}

// SpotifyHandler serves the /auth/spotify routes.
type SpotifyHandler struct {
	tokens   TokenService
	ingestor IngestService
	logger   *log.Logger
}

// NewSpotifyHandler creates a [SpotifyHandler].
func NewSpotifyHandler(tokens TokenService, ingestor IngestService, logger *log.Logger) *SpotifyHandler {
	return &SpotifyHandler{tokens: tokens, ingestor: ingestor, logger: logger}
}

// Routes returns the auth and ingestion routes.
func (h *SpotifyHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/auth/spotify/login", h.Login},
		{http.MethodGet, "/auth/spotify/callback", h.Callback},
		{http.MethodGet, "/auth/spotify/exchange", h.Exchange},
		{http.MethodGet, "/auth/spotify/exchange-from-redirect", h.ExchangeFromRedirect},
		{http.MethodPost, "/auth/spotify/ingest", h.Ingest},
	}
}

// exchangeResponse reports a stored token exchange.
type exchangeResponse struct {
	Stored    bool   `json:"stored"`
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	Scope     string `json:"scope"`
	ExpiresIn int64  `json:"expires_in"`
}

// Login redirects to the Spotify consent screen.
func (h *SpotifyHandler) Login(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.tokens.AuthURL(shared.GenerateID()), http.StatusTemporaryRedirect)
}

// Callback surfaces the authorization code, or the provider's error, for a manual exchange.
func (h *SpotifyHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		WriteJSON(w, http.StatusOK, map[string]string{
			"error":   errParam,
			"message": "Spotify authorization was denied or failed",
		})
		return
	}

	code := q.Get("code")
	if code == "" {
		WriteJSON(w, http.StatusOK, map[string]string{
			"error":   "no_code",
			"message": "No authorization code received from Spotify",
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"code":    code,
		"state":   q.Get("state"),
		"message": "Copy this code and use /auth/spotify/exchange with your user_id",
	})
}

// Exchange trades ?code for tokens and stores them on ?user_id.
func (h *SpotifyHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code, userID := q.Get("code"), q.Get("user_id")
	if code == "" || userID == "" {
		WriteDetail(w, http.StatusUnprocessableEntity, "code and user_id are required")
		return
	}
	h.exchange(w, r, code, userID)
}

// ExchangeFromRedirect is [SpotifyHandler.Exchange] with the code taken from a full ?redirect_url.
func (h *SpotifyHandler) ExchangeFromRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	redirectURL, userID := q.Get("redirect_url"), q.Get("user_id")
	if redirectURL == "" || userID == "" {
		WriteDetail(w, http.StatusUnprocessableEntity, "redirect_url and user_id are required")
		return
	}

	code, err := codeFromRedirect(redirectURL)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	h.exchange(w, r, code, userID)
}

func (h *SpotifyHandler) exchange(w http.ResponseWriter, r *http.Request, code, userID string) {
	payload, err := h.tokens.ExchangeCode(r.Context(), code)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	if _, err := h.tokens.Persist(r.Context(), userID, payload); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	h.logger.Info("stored spotify tokens", "user_id", userID, "scope", payload.Scope)
	WriteJSON(w, http.StatusOK, exchangeResponse{
		Stored:    true,
		UserID:    userID,
		TokenType: payload.TokenType,
		Scope:     payload.Scope,
		ExpiresIn: payload.ExpiresIn,
	})
}

// Ingest runs an ingestion pass for ?user_id.
func (h *SpotifyHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		WriteDetail(w, http.StatusUnprocessableEntity, "user_id is required")
		return
	}

	summary, err := h.ingestor.Ingest(r.Context(), userID)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

// codeFromRedirect extracts the code query parameter from a redirect URL.
func codeFromRedirect(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid redirect_url: %v", shared.ErrValidation, err)
	}
	code := u.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("%w: No code found in redirect_url", shared.ErrValidation)
	}
	return code, nil
}
