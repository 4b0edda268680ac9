// Spotify Web API client for listening data
//
// Response shapes based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/desertthunder/musicagent/internal/shared"
	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// AudioFeaturesBatchSize is the provider's ceiling on ids per audio-features call.
	AudioFeaturesBatchSize = 100

	topItemsLimit  = 50
	topTimeRange   = "medium_term"
	recentlyPlayed = 50
)

// pagingObject is the envelope of paged list endpoints. Items stay raw.
type pagingObject struct {
	Items []json.RawMessage `json:"items"`
}

type audioFeaturesResponse struct {
	AudioFeatures []json.RawMessage `json:"audio_features"`
}

// SpotifyTrack is the part of a track object needed to request its audio features.
type SpotifyTrack struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAPI implements [ListeningAPI] against the Spotify Web API.
type SpotifyAPI struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// NewSpotifyAPI creates a client that sends requests through hc.
//
// cfg.RateLimit caps requests per second across all callers; zero disables pacing.
func NewSpotifyAPI(hc *http.Client, cfg shared.SpotifyAPIConfig) *SpotifyAPI {
	if hc == nil {
		hc = &http.Client{}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = max(1, int(cfg.RateLimit))
	}

	client := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(cfg.Timeout()).
		SetHeader("Accept", "application/json")

	return &SpotifyAPI{client: client, limiter: rate.NewLimiter(limit, burst)}
}

// get performs an authenticated GET and decodes a 2xx body into result.
func (s *SpotifyAPI) get(ctx context.Context, token, path string, params map[string]string, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", shared.ErrUpstreamAPI, path, err)
	}

	if resp.IsError() {
		return &shared.UpstreamError{Kind: shared.KindAPI, Status: resp.StatusCode(), Body: resp.Body()}
	}

	body := resp.Body()
	if len(body) == 0 || result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func (s *SpotifyAPI) items(ctx context.Context, token, path string, params map[string]string) ([]json.RawMessage, error) {
	var page pagingObject
	if err := s.get(ctx, token, path, params, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		return []json.RawMessage{}, nil
	}
	return page.Items, nil
}

// TopTracks retrieves the user's top tracks over the medium term.
func (s *SpotifyAPI) TopTracks(ctx context.Context, token string) ([]json.RawMessage, error) {
	return s.items(ctx, token, "/me/top/tracks", map[string]string{
		"limit":      strconv.Itoa(topItemsLimit),
		"time_range": topTimeRange,
	})
}

// TopArtists retrieves the user's top artists over the medium term.
func (s *SpotifyAPI) TopArtists(ctx context.Context, token string) ([]json.RawMessage, error) {
	return s.items(ctx, token, "/me/top/artists", map[string]string{
		"limit":      strconv.Itoa(topItemsLimit),
		"time_range": topTimeRange,
	})
}

// RecentlyPlayed retrieves the user's most recently played items.
func (s *SpotifyAPI) RecentlyPlayed(ctx context.Context, token string) ([]json.RawMessage, error) {
	return s.items(ctx, token, "/me/player/recently-played", map[string]string{
		"limit": strconv.Itoa(recentlyPlayed),
	})
}

// AudioFeatures retrieves audio features for trackIDs in sequential batches.
//
// Null entries (unknown ids) are dropped; the rest keep request order.
func (s *SpotifyAPI) AudioFeatures(ctx context.Context, token string, trackIDs []string) ([]json.RawMessage, error) {
	features := make([]json.RawMessage, 0, len(trackIDs))

	for _, batch := range lo.Chunk(trackIDs, AudioFeaturesBatchSize) {
		if len(batch) == 0 {
			continue
		}

		var resp audioFeaturesResponse
		params := map[string]string{"ids": strings.Join(batch, ",")}
		if err := s.get(ctx, token, "/audio-features", params, &resp); err != nil {
			return nil, err
		}

		features = append(features, lo.Filter(resp.AudioFeatures, func(f json.RawMessage, _ int) bool {
			return len(f) > 0 && string(f) != "null"
		})...)
	}

	return features, nil
}

// TrackIDs extracts the ids of track objects, skipping entries without one.
func TrackIDs(tracks []json.RawMessage) []string {
	return lo.FilterMap(tracks, func(raw json.RawMessage, _ int) (string, bool) {
		var t SpotifyTrack
		if err := json.Unmarshal(raw, &t); err != nil {
			return "", false
		}
		return t.ID, t.ID != ""
	})
}
