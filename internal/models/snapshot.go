package models

import (
	"encoding/json"
	"time"
)

// SnapshotSource tags snapshots produced from the Spotify Web API v1.
const SnapshotSource = "spotify_api_v1"

// Snapshot is one immutable capture of a user's listening data.
type Snapshot struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	FetchedAt      time.Time         `json:"fetched_at"`
	TopTracks      []json.RawMessage `json:"top_tracks"`
	TopArtists     []json.RawMessage `json:"top_artists"`
	RecentlyPlayed []json.RawMessage `json:"recently_played"`
	AudioFeatures  []json.RawMessage `json:"audio_features"`
	Source         string            `json:"source"`
}

// Counts returns the size of each collected list.
func (s *Snapshot) Counts() SnapshotCounts {
	return SnapshotCounts{
		TopTracks:      len(s.TopTracks),
		TopArtists:     len(s.TopArtists),
		RecentlyPlayed: len(s.RecentlyPlayed),
		AudioFeatures:  len(s.AudioFeatures),
	}
}

// SnapshotCounts is the per-list size of a snapshot.
type SnapshotCounts struct {
	TopTracks      int `json:"top_tracks"`
	TopArtists     int `json:"top_artists"`
	RecentlyPlayed int `json:"recently_played"`
	AudioFeatures  int `json:"audio_features"`
}

// SnapshotSummary is the result of one ingestion run.
type SnapshotSummary struct {
	Stored     bool           `json:"stored"`
	UserID     string         `json:"user_id"`
	SnapshotID string         `json:"snapshot_id"`
	Counts     SnapshotCounts `json:"counts"`
}
