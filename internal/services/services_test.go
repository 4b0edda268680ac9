package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/repositories"
	"github.com/desertthunder/musicagent/internal/shared"
	testutil "github.com/desertthunder/musicagent/internal/testing"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

const (
	topTracksURL      = spotifyBaseURL + "/me/top/tracks"
	topArtistsURL     = spotifyBaseURL + "/me/top/artists"
	recentlyPlayedURL = spotifyBaseURL + "/me/player/recently-played"
	audioFeaturesURL  = spotifyBaseURL + "/audio-features"
)

var testCreds = shared.SpotifyConfig{
	ClientID:     "test_client_id",
	ClientSecret: "test_client_secret",
	RedirectURI:  "http://127.0.0.1:3000/auth/spotify/callback",
}

// fixture bundles a store, mock transport and services sharing one clock.
type fixture struct {
	transport *httpmock.MockTransport
	client    *http.Client
	clock     *testutil.Clock
	users     *repositories.UserRepository
	snapshots *repositories.SnapshotRepository
	tokens    *TokenManager
	api       *SpotifyAPI
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	mt := httpmock.NewMockTransport()
	hc := &http.Client{Transport: mt}
	clock := testutil.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	users := repositories.NewUserRepository(db).WithClock(clock.Now)
	return &fixture{
		transport: mt,
		client:    hc,
		clock:     clock,
		users:     users,
		snapshots: repositories.NewSnapshotRepository(db).WithClock(clock.Now),
		tokens:    NewTokenManager(testCreds, shared.SpotifyAPIConfig{}, hc, users).WithClock(clock.Now),
		api:       NewSpotifyAPI(hc, shared.SpotifyAPIConfig{}),
	}
}

func (f *fixture) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := f.users.Create(context.Background(), &models.User{
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		Email:        username + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) link(t *testing.T, userID string, auth models.SpotifyAuth) {
	t.Helper()
	auth.UpdatedAt = f.clock.Now()
	_, err := f.users.MergeSpotifyAuth(context.Background(), userID, auth)
	require.NoError(t, err)
}

func tokenResponder(body map[string]any) httpmock.Responder {
	return httpmock.NewJsonResponderOrPanic(http.StatusOK, body)
}

func itemsJSON(prefix string, n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id":"%s%03d","name":"%s %d"}`, prefix, i, prefix, i)
	}
	return `{"items":[` + strings.Join(items, ",") + `]}`
}

// featuresResponder answers audio-features calls, returning null for ids in missing.
func featuresResponder(missing map[string]bool) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		ids := strings.Split(req.URL.Query().Get("ids"), ",")
		features := make([]json.RawMessage, len(ids))
		for i, id := range ids {
			if missing[id] {
				features[i] = json.RawMessage("null")
				continue
			}
			features[i] = json.RawMessage(fmt.Sprintf(`{"id":"%s","energy":0.5}`, id))
		}
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"audio_features": features})
	}
}

func TestLoginScopes(t *testing.T) {
	require.Equal(t, []string{"user-read-recently-played", "user-top-read", "playlist-modify-private"}, LoginScopes)
	require.Equal(t, "https://accounts.spotify.com/api/token", spotifyauth.TokenURL)
}
