// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
)

// FakeCatalog is an in-memory [services.Catalog].
//
// Tracks are resolved by "title|artist" keys; Vectors are keyed by track ID. Err, when set, fails every call.
type FakeCatalog struct {
	mu sync.Mutex

	Tracks          map[string]models.Track
	Vectors         map[string]models.SignalVector
	Recommended     []models.Track
	Artists         []models.Artist
	Genres          []string
	UserID          string
	Err             error
	SearchErr       error
	RecommendErr    error
	LastQuery       services.RecommendationQuery
	Searches        []string
	VectorRequests  [][]string
	CreatedPlaylist string
	Added           map[string][]string
}

// NewFakeCatalog creates an empty fake catalog.
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		Tracks:  make(map[string]models.Track),
		Vectors: make(map[string]models.SignalVector),
		Added:   make(map[string][]string),
		UserID:  "user-1",
	}
}

// TrackKey is the lookup key used by [FakeCatalog.SearchTrack].
func TrackKey(title, artist string) string {
	return title + "|" + artist
}

// AddTrack registers a track found by title and artist, with its features.
func (f *FakeCatalog) AddTrack(title, artist string, track models.Track, values map[models.Dimension]float64) {
	f.Tracks[TrackKey(title, artist)] = track
	if values != nil {
		f.Vectors[track.ID] = models.SignalVector{TrackID: track.ID, Values: values}
	}
}

func (f *FakeCatalog) SearchTrack(_ context.Context, title, artist string) (*models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Searches = append(f.Searches, TrackKey(title, artist))
	if f.Err != nil {
		return nil, f.Err
	}
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	t, ok := f.Tracks[TrackKey(title, artist)]
	if !ok {
		return nil, shared.ErrTrackNotFound
	}
	return &t, nil
}

func (f *FakeCatalog) SearchArtists(_ context.Context, query string, limit int) ([]models.Artist, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Artists[:min(limit, len(f.Artists))], nil
}

func (f *FakeCatalog) SignalVectors(_ context.Context, trackIDs []string) ([]models.SignalVector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.VectorRequests = append(f.VectorRequests, slices.Clone(trackIDs))
	if f.Err != nil {
		return nil, f.Err
	}
	var out []models.SignalVector
	for _, id := range trackIDs {
		if v, ok := f.Vectors[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *FakeCatalog) Recommendations(_ context.Context, q services.RecommendationQuery) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastQuery = q
	if f.Err != nil {
		return nil, f.Err
	}
	if f.RecommendErr != nil {
		return nil, f.RecommendErr
	}
	return f.Recommended[:min(q.Limit, len(f.Recommended))], nil
}

func (f *FakeCatalog) CurrentUserID(context.Context) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return f.UserID, nil
}

func (f *FakeCatalog) CreatePlaylist(_ context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.CreatedPlaylist = name
	return &models.Playlist{ID: "playlist-1", Name: name, URL: "https://open.spotify.com/playlist/playlist-1"}, nil
}

func (f *FakeCatalog) AddTracks(_ context.Context, playlistID string, trackIDs []string) error {
	if f.Err != nil {
		return f.Err
	}
	f.Added[playlistID] = append(f.Added[playlistID], trackIDs...)
	return nil
}

func (f *FakeCatalog) AvailableGenres(context.Context) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Genres, nil
}

// FakeGenerator returns Text for every prompt and records the prompts it saw.
type FakeGenerator struct {
	Text    string
	Err     error
	Prompts []string
}

func (g *FakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.Prompts = append(g.Prompts, prompt)
	if g.Err != nil {
		return "", g.Err
	}
	return g.Text, nil
}

// FakeLookup answers attribute lookups from Attributes and records each batch of names.
type FakeLookup struct {
	Attributes map[string]string
	Err        error
	Calls      [][]string
}

func (l *FakeLookup) LookupByNames(_ context.Context, names []string) (map[string]models.ArtistAttribute, error) {
	l.Calls = append(l.Calls, slices.Clone(names))
	if l.Err != nil {
		return nil, l.Err
	}
	out := make(map[string]models.ArtistAttribute)
	for _, n := range names {
		if g, ok := l.Attributes[n]; ok {
			out[n] = models.ArtistAttribute{Name: n, Gender: g}
		}
	}
	return out, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// NopBody wraps s as a response body.
func NopBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
