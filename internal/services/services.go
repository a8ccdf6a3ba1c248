// package services defines the remote collaborators of the synthesis pipeline
//
// Spotify (catalog), OpenAI (text generation), MusicBrainz (artist attributes)
package services

import (
	"context"

	"github.com/desertthunder/mixtape/internal/models"
)

// Catalog is the music catalog the pipeline resolves, profiles and recommends against.
type Catalog interface {
	// SearchTrack returns the best match for title by artist, or [shared.ErrTrackNotFound].
	SearchTrack(ctx context.Context, title, artist string) (*models.Track, error)

	// SearchArtists returns up to limit artists matching query.
	SearchArtists(ctx context.Context, query string, limit int) ([]models.Artist, error)

	// SignalVectors returns the audio features of each known track. Unknown IDs are omitted.
	SignalVectors(ctx context.Context, trackIDs []string) ([]models.SignalVector, error)

	// Recommendations returns catalog tracks seeded and targeted by q.
	Recommendations(ctx context.Context, q RecommendationQuery) ([]models.Track, error)

	// CurrentUserID returns the ID of the user owning the session.
	CurrentUserID(ctx context.Context) (string, error)

	// CreatePlaylist creates a playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)

	// AddTracks appends tracks to a playlist.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// AvailableGenres lists the genres usable as recommendation seeds.
	AvailableGenres(ctx context.Context) ([]string, error)
}

// Generator produces free text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AttributeLookup resolves categorical artist metadata by exact display name.
//
// Names with no match are absent from the result. A failed lookup returns [shared.ErrLookupUnavailable].
type AttributeLookup interface {
	LookupByNames(ctx context.Context, names []string) (map[string]models.ArtistAttribute, error)
}

// RecommendationQuery seeds a recommendation request. At most five seeds in total are honored upstream.
type RecommendationQuery struct {
	SeedArtists []string
	SeedTracks  []string
	SeedGenres  []string
	Targets     models.TargetProfile
	Limit       int
	Market      string
}

// SeedCount is the total number of seeds in q.
func (q RecommendationQuery) SeedCount() int {
	return len(q.SeedArtists) + len(q.SeedTracks) + len(q.SeedGenres)
}
