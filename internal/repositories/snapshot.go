package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

const snapshotColumns = "id, user_id, fetched_at, top_tracks, top_artists, recently_played, audio_features, source"

// SnapshotRepository stores append-only [models.Snapshot] records.
type SnapshotRepository struct {
	db  *sql.DB
	now Clock
}

// NewSnapshotRepository creates a new [SnapshotRepository] with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db, now: time.Now}
}

// WithClock replaces the repository's time source.
func (r *SnapshotRepository) WithClock(c Clock) *SnapshotRepository {
	r.now = c
	return r
}

// Create stamps and inserts snapshot for userID and returns the new snapshot's ID.
//
// A userID that is not a storage identifier fails with [shared.ErrNotLinked].
func (r *SnapshotRepository) Create(ctx context.Context, userID string, snapshot *models.Snapshot) (string, error) {
	if !shared.IsValidID(userID) {
		return "", fmt.Errorf("%w: user %s", shared.ErrNotLinked, userID)
	}

	snapshot.ID = shared.GenerateID()
	snapshot.UserID = userID
	snapshot.FetchedAt = r.now().UTC()
	if snapshot.Source == "" {
		snapshot.Source = models.SnapshotSource
	}

	lists := make([]any, 0, 4)
	for _, items := range [][]json.RawMessage{
		snapshot.TopTracks, snapshot.TopArtists, snapshot.RecentlyPlayed, snapshot.AudioFeatures,
	} {
		if items == nil {
			items = []json.RawMessage{}
		}
		data, err := json.Marshal(items)
		if err != nil {
			return "", fmt.Errorf("failed to encode snapshot items: %w", err)
		}
		lists = append(lists, string(data))
	}

	query := fmt.Sprintf("INSERT INTO spotify_snapshots (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", snapshotColumns)
	args := append([]any{snapshot.ID, userID, shared.FormatTimestamp(snapshot.FetchedAt)}, lists...)
	args = append(args, snapshot.Source)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return snapshot.ID, nil
}

// Get retrieves a snapshot by ID.
func (r *SnapshotRepository) Get(ctx context.Context, id string) (*models.Snapshot, error) {
	if !shared.IsValidID(id) {
		return nil, fmt.Errorf("%w: snapshot %s", shared.ErrNotFound, id)
	}

	query := fmt.Sprintf("SELECT %s FROM spotify_snapshots WHERE id = ?", snapshotColumns)
	snapshot, err := scanSnapshot(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: snapshot %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	return snapshot, nil
}

// ListByUser returns up to limit snapshots for userID, newest first.
func (r *SnapshotRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Snapshot, error) {
	if limit < 1 || limit > MaxListLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", shared.ErrValidation, MaxListLimit)
	}

	snapshots := make([]*models.Snapshot, 0)
	if !shared.IsValidID(userID) {
		return snapshots, nil
	}

	query := fmt.Sprintf(
		"SELECT %s FROM spotify_snapshots WHERE user_id = ? ORDER BY fetched_at DESC LIMIT ?", snapshotColumns,
	)
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return snapshots, nil
}

// Latest returns the most recent snapshot for userID.
func (r *SnapshotRepository) Latest(ctx context.Context, userID string) (*models.Snapshot, error) {
	snapshots, err := r.ListByUser(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("%w: no snapshots for user %s", shared.ErrNotFound, userID)
	}
	return snapshots[0], nil
}

func scanSnapshot(row scanner) (*models.Snapshot, error) {
	var (
		s                                           models.Snapshot
		fetchedAt                                   string
		topTracks, topArtists, recent, audioFeature string
	)
	err := row.Scan(&s.ID, &s.UserID, &fetchedAt, &topTracks, &topArtists, &recent, &audioFeature, &s.Source)
	if err != nil {
		return nil, err
	}

	if s.FetchedAt, err = shared.ParseTimestamp(fetchedAt); err != nil {
		return nil, err
	}

	for _, col := range []struct {
		raw string
		dst *[]json.RawMessage
	}{
		{topTracks, &s.TopTracks},
		{topArtists, &s.TopArtists},
		{recent, &s.RecentlyPlayed},
		{audioFeature, &s.AudioFeatures},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot items: %w", err)
		}
	}
	return &s, nil
}
