package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/desertthunder/musicagent/internal/models"
)

// TokenStore reads and writes the Spotify auth record embedded in a user.
type TokenStore interface {
	SpotifyAuth(ctx context.Context, userID string) (*models.SpotifyAuth, error)
	MergeSpotifyAuth(ctx context.Context, userID string, auth models.SpotifyAuth) (*models.User, error)
}

// SnapshotStore appends ingestion snapshots.
type SnapshotStore interface {
	Create(ctx context.Context, userID string, snapshot *models.Snapshot) (string, error)
}

// UserStore is the account persistence used by [AccountService].
type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Credentials(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, limit int) ([]*models.User, error)
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ListeningAPI is the subset of the Spotify Web API used for ingestion.
//
// Each method returns the provider's items verbatim.
type ListeningAPI interface {
	TopTracks(ctx context.Context, token string) ([]json.RawMessage, error)
	TopArtists(ctx context.Context, token string) ([]json.RawMessage, error)
	RecentlyPlayed(ctx context.Context, token string) ([]json.RawMessage, error)
	AudioFeatures(ctx context.Context, token string, trackIDs []string) ([]json.RawMessage, error)
}

// Clock returns the current time.
type Clock func() time.Time
