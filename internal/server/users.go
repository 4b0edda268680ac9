package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/services"
	"github.com/desertthunder/musicagent/internal/shared"
	"github.com/gorilla/mux"
)

const (
	defaultUserLimit     = 100
	defaultSnapshotLimit = 20
)

// AccountService is the account management used by the /users routes.
type AccountService interface {
	Signup(ctx context.Context, req services.SignupRequest) (*models.User, error)
	Authenticate(ctx context.Context, req services.SigninRequest) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, limit int) ([]*models.User, error)
	Update(ctx context.Context, id string, req services.ProfileUpdate) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// SnapshotReader reads stored snapshots.
type SnapshotReader interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Snapshot, error)
	Latest(ctx context.Context, userID string) (*models.Snapshot, error)
}

// Pinger checks the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// UserHandler serves the /users routes.
type UserHandler struct {
	accounts  AccountService
	snapshots SnapshotReader
	store     Pinger
	logger    *log.Logger
}

// NewUserHandler creates a [UserHandler].
func NewUserHandler(accounts AccountService, snapshots SnapshotReader, store Pinger, logger *log.Logger) *UserHandler {
	return &UserHandler{accounts: accounts, snapshots: snapshots, store: store, logger: logger}
}

// Routes returns the user routes. The literal db-ping and login paths precede /users/{id}.
func (h *UserHandler) Routes() []Route {
	return []Route{
		{http.MethodPost, "/users", h.Create},
		{http.MethodGet, "/users", h.List},
		{http.MethodGet, "/users/db-ping", h.DBPing},
		{http.MethodPost, "/users/login", h.Login},
		{http.MethodGet, "/users/{id}", h.Get},
		{http.MethodPut, "/users/{id}", h.Update},
		{http.MethodDelete, "/users/{id}", h.Delete},
		{http.MethodGet, "/users/{id}/snapshots", h.Snapshots},
		{http.MethodGet, "/users/{id}/snapshots/latest", h.LatestSnapshot},
	}
}

// Create signs up a new account.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	user, err := h.accounts.Signup(r.Context(), req)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, user)
}

// Login checks a username and password and returns the account.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.SigninRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), req)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// List returns accounts, limited by ?limit (default 100, at most 500).
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultUserLimit)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	users, err := h.accounts.List(r.Context(), limit)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

// DBPing reports whether the store answers.
func (h *UserHandler) DBPing(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("database ping failed", "err", err)
		WriteDetail(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Get returns one account.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// Update applies a partial profile update.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req services.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	user, err := h.accounts.Update(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// Delete removes an account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Snapshots lists a user's snapshots newest first, limited by ?limit (default 20).
func (h *UserHandler) Snapshots(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	limit, err := queryInt(r, "limit", defaultSnapshotLimit)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	if _, err := h.accounts.Get(r.Context(), id); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	snapshots, err := h.snapshots.ListByUser(r.Context(), id, limit)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, snapshots)
}

// LatestSnapshot returns a user's most recent snapshot.
func (h *UserHandler) LatestSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.snapshots.Latest(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, snapshot)
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", shared.ErrValidation, key)
	}
	return n, nil
}
