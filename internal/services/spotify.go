// Spotify Web API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

const (
	DefaultSpotifyBaseURL = "https://api.spotify.com/v1"
	// DefaultMarket scopes recommendations to a catalog region.
	DefaultMarket         = "CA"

	// maxSeeds is the upstream cap on seed_artists + seed_tracks + seed_genres.
	maxSeeds = 5
	// maxBatch is the upstream cap on IDs per audio-features call and URIs per playlist insert.
	maxBatch = 100
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type spotifyPlaylist struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type trackSearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

type artistSearchResponse struct {
	Artists struct {
		Items []SpotifyArtist `json:"items"`
	} `json:"artists"`
}

type audioFeaturesResponse struct {
	AudioFeatures []map[string]json.RawMessage `json:"audio_features"`
}

type recommendationsResponse struct {
	Tracks []SpotifyTrack `json:"tracks"`
}

type genresResponse struct {
	Genres []string `json:"genres"`
}

func firstImage(images []SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

// toTrack converts a Spotify track to a [models.Track], keeping artist order.
func (t SpotifyTrack) toTrack() models.Track {
	track := models.Track{
		ID:       t.ID,
		Name:     t.Name,
		ImageURL: firstImage(t.Album.Images),
	}
	for _, a := range t.Artists {
		track.ArtistIDs = append(track.ArtistIDs, a.ID)
		track.ArtistNames = append(track.ArtistNames, a.Name)
	}
	return track
}

// SpotifyCatalog implements [Catalog] over a [Client] that owns the session's bearer token.
type SpotifyCatalog struct {
	client *Client
	market string
}

// NewSpotifyCatalog creates a catalog backed by client. An empty market uses [DefaultMarket].
func NewSpotifyCatalog(client *Client, market string) *SpotifyCatalog {
	if market == "" {
		market = DefaultMarket
	}
	return &SpotifyCatalog{client: client, market: market}
}

// SearchTrack runs a fielded track search and returns the first hit.
func (s *SpotifyCatalog) SearchTrack(ctx context.Context, title, artist string) (*models.Track, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("track:%q artist:%q", title, artist))
	params.Set("type", "track")
	params.Set("limit", "1")

	var resp trackSearchResponse
	if err := s.client.Call(ctx, APIRequest{Method: http.MethodGet, Endpoint: "search", Params: params}, &resp); err != nil {
		return nil, fmt.Errorf("search track: %w", err)
	}
	if len(resp.Tracks.Items) == 0 {
		return nil, shared.ErrTrackNotFound
	}

	track := resp.Tracks.Items[0].toTrack()
	return &track, nil
}

// SearchArtists searches artists by free text.
func (s *SpotifyCatalog) SearchArtists(ctx context.Context, query string, limit int) ([]models.Artist, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "artist")
	params.Set("limit", strconv.Itoa(limit))

	var resp artistSearchResponse
	if err := s.client.Call(ctx, APIRequest{Method: http.MethodGet, Endpoint: "search", Params: params}, &resp); err != nil {
		return nil, fmt.Errorf("search artists: %w", err)
	}

	artists := make([]models.Artist, 0, len(resp.Artists.Items))
	for _, a := range resp.Artists.Items {
		artists = append(artists, models.Artist{ID: a.ID, Name: a.Name, ImageURL: firstImage(a.Images)})
	}
	return artists, nil
}

// SignalVectors fetches audio features in batches of 100.
//
// Null entries (unknown IDs) are skipped; non-numeric or missing fields are left out of the vector.
func (s *SpotifyCatalog) SignalVectors(ctx context.Context, trackIDs []string) ([]models.SignalVector, error) {
	var vectors []models.SignalVector
	for batch := range slices.Chunk(trackIDs, maxBatch) {
		params := url.Values{}
		params.Set("ids", strings.Join(batch, ","))

		var resp audioFeaturesResponse
		if err := s.client.Call(ctx, APIRequest{Method: http.MethodGet, Endpoint: "audio-features", Params: params}, &resp); err != nil {
			return nil, fmt.Errorf("audio features: %w", err)
		}

		for _, raw := range resp.AudioFeatures {
			if raw == nil {
				continue
			}
			vectors = append(vectors, parseSignalVector(raw))
		}
	}
	return vectors, nil
}

func parseSignalVector(raw map[string]json.RawMessage) models.SignalVector {
	v := models.SignalVector{Values: make(map[models.Dimension]float64)}
	if id, ok := raw["id"]; ok {
		_ = json.Unmarshal(id, &v.TrackID)
	}
	for _, d := range models.Dimensions {
		field, ok := raw[string(d)]
		if !ok || string(field) == "null" {
			continue
		}
		var f float64
		if err := json.Unmarshal(field, &f); err != nil {
			continue
		}
		v.Values[d] = f
	}
	return v
}

// Recommendations fetches tracks for q. Seeds past the upstream cap are dropped, genres before tracks before artists.
func (s *SpotifyCatalog) Recommendations(ctx context.Context, q RecommendationQuery) ([]models.Track, error) {
	if q.SeedCount() == 0 {
		return nil, fmt.Errorf("%w: recommendations need at least one seed", shared.ErrInvalidInput)
	}

	market := q.Market
	if market == "" {
		market = s.market
	}

	params := url.Values{}
	params.Set("market", market)
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	remaining := maxSeeds
	for _, seed := range []struct {
		key string
		ids []string
	}{
		{"seed_artists", q.SeedArtists},
		{"seed_tracks", q.SeedTracks},
		{"seed_genres", q.SeedGenres},
	} {
		ids := seed.ids[:min(len(seed.ids), remaining)]
		if len(ids) == 0 {
			continue
		}
		params.Set(seed.key, strings.Join(ids, ","))
		remaining -= len(ids)
	}

	for _, d := range q.Targets.SortedDimensions() {
		params.Set("target_"+string(d), strconv.FormatFloat(q.Targets[d], 'f', -1, 64))
	}

	var resp recommendationsResponse
	if err := s.client.Call(ctx, APIRequest{Method: http.MethodGet, Endpoint: "recommendations", Params: params}, &resp); err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}

	tracks := make([]models.Track, 0, len(resp.Tracks))
	for _, t := range resp.Tracks {
		tracks = append(tracks, t.toTrack())
	}
	return tracks, nil
}

// CurrentUserID retrieves the current user's profile ID.
func (s *SpotifyCatalog) CurrentUserID(ctx context.Context) (string, error) {
	var user SpotifyUser
	if err := s.client.Call(ctx, APIRequest{Method: http.MethodGet, Endpoint: "me"}, &user); err != nil {
		return "", fmt.Errorf("current user: %w", err)
	}
	if user.ID == "" {
		return "", fmt.Errorf("current user: empty profile id")
	}
	return user.ID, nil
}

// CreatePlaylist creates a playlist for userID.
func (s *SpotifyCatalog) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	body := map[string]any{"name": name, "public": public}
	if description != "" {
		body["description"] = description
	}

	var created spotifyPlaylist
	req := APIRequest{
		Method:   http.MethodPost,
		Endpoint: "users/" + url.PathEscape(userID) + "/playlists",
		Body:     body,
	}
	if err := s.client.Call(ctx, req, &created); err != nil {
		return nil, fmt.Errorf("create playlist: %w", err)
	}
	return &models.Playlist{ID: created.ID, Name: created.Name, URL: created.ExternalURLs.Spotify}, nil
}

// AddTracks appends tracks as spotify:track URIs in batches of 100.
func (s *SpotifyCatalog) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	for batch := range slices.Chunk(trackIDs, maxBatch) {
		uris := make([]string, len(batch))
		for i, id := range batch {
			uris[i] = "spotify:track:" + id
		}

		req := APIRequest{
			Method:   http.MethodPost,
			Endpoint: "playlists/" + url.PathEscape(playlistID) + "/tracks",
			Body:     map[string]any{"uris": uris},
		}
		if err := s.client.Call(ctx, req, nil); err != nil {
			return fmt.Errorf("add tracks: %w", err)
		}
	}
	return nil
}

// AvailableGenres lists recommendation genre seeds.
func (s *SpotifyCatalog) AvailableGenres(ctx context.Context) ([]string, error) {
	var resp genresResponse
	if err := s.client.Call(ctx, APIRequest{Method: http.MethodGet, Endpoint: "recommendations/available-genre-seeds"}, &resp); err != nil {
		return nil, fmt.Errorf("available genres: %w", err)
	}
	return resp.Genres, nil
}
