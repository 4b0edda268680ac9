package services

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Ingestor captures a user's listening data into a snapshot.
type Ingestor struct {
	tokens    *TokenManager
	api       ListeningAPI
	snapshots SnapshotStore
	logger    *log.Logger
}

// NewIngestor wires an [Ingestor]. The token manager's store supplies stored auth.
func NewIngestor(tokens *TokenManager, api ListeningAPI, snapshots SnapshotStore, logger *log.Logger) *Ingestor {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Ingestor{tokens: tokens, api: api, snapshots: snapshots, logger: logger}
}

// Ingest runs one ingestion pass for userID and returns the stored snapshot's summary.
//
// An expired access token is refreshed and persisted before any data call is made.
func (i *Ingestor) Ingest(ctx context.Context, userID string) (*models.SnapshotSummary, error) {
	logger := shared.WithLogger(i.logger, "user_id", userID)

	auth, err := i.tokens.store.SpotifyAuth(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !auth.HasCredentials() {
		return nil, fmt.Errorf("%w: spotify tokens missing for user, link spotify first", shared.ErrMissingCredentials)
	}

	token := auth.AccessToken
	if i.tokens.IsExpired(auth.ExpiresAt) {
		if auth.RefreshToken == "" {
			return nil, fmt.Errorf("%w: access token expired and no refresh token is stored", shared.ErrUnauthorized)
		}

		logger.Debug("refreshing expired access token", "expires_at", auth.ExpiresAt)
		payload, err := i.tokens.Refresh(ctx, auth.RefreshToken)
		if err != nil {
			return nil, err
		}
		if _, err := i.tokens.Persist(ctx, userID, payload); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
		}
		token = payload.AccessToken
	}

	if token == "" {
		return nil, fmt.Errorf("%w: unable to obtain a valid access token", shared.ErrUnauthorized)
	}

	snapshot := &models.Snapshot{Source: models.SnapshotSource}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snapshot.TopTracks, err = i.api.TopTracks(gctx, token)
		return err
	})
	g.Go(func() (err error) {
		snapshot.TopArtists, err = i.api.TopArtists(gctx, token)
		return err
	})
	g.Go(func() (err error) {
		snapshot.RecentlyPlayed, err = i.api.RecentlyPlayed(gctx, token)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := TrackIDs(snapshot.TopTracks)
	if snapshot.AudioFeatures, err = i.api.AudioFeatures(ctx, token, ids); err != nil {
		return nil, err
	}

	id, err := i.snapshots.Create(ctx, userID, snapshot)
	if err != nil {
		return nil, err
	}

	summary := &models.SnapshotSummary{
		Stored:     true,
		UserID:     userID,
		SnapshotID: id,
		Counts:     snapshot.Counts(),
	}
	logger.Info("stored listening snapshot", "snapshot_id", id,
		"top_tracks", summary.Counts.TopTracks, "audio_features", summary.Counts.AudioFeatures)
	return summary, nil
}
