package models

import (
	"fmt"
	"slices"
	"time"
)

const (
	DefaultSongCount = 10
	MaxSongCount     = 100
)

// Dimension names one numeric audio feature.
type Dimension string

const (
	Energy           Dimension = "energy"
	Valence          Dimension = "valence"
	Tempo            Dimension = "tempo"
	Key              Dimension = "key"
	Loudness         Dimension = "loudness"
	Danceability     Dimension = "danceability"
	Acousticness     Dimension = "acousticness"
	Instrumentalness Dimension = "instrumentalness"
	Liveness         Dimension = "liveness"
	Speechiness      Dimension = "speechiness"
	Mode             Dimension = "mode"
	TimeSignature    Dimension = "time_signature"
)

// Dimensions is the fixed, ordered set of features a [SignalVector] may carry.
var Dimensions = []Dimension{
	Energy, Valence, Tempo, Key, Loudness, Danceability,
	Acousticness, Instrumentalness, Liveness, Speechiness, Mode, TimeSignature,
}

// IsDiscrete reports whether d only takes integer values upstream.
func (d Dimension) IsDiscrete() bool {
	return d == Key || d == Mode || d == TimeSignature
}

// Track is a catalog track. ArtistIDs and ArtistNames are parallel; index 0 is the primary artist.
type Track struct {
	ID          string
	Name        string
	ArtistIDs   []string
	ArtistNames []string
	ImageURL    string
}

// PrimaryArtistID returns the first artist ID or "".
func (t Track) PrimaryArtistID() string {
	if len(t.ArtistIDs) == 0 {
		return ""
	}
	return t.ArtistIDs[0]
}

// PrimaryArtistName returns the first artist name or "".
func (t Track) PrimaryArtistName() string {
	if len(t.ArtistNames) == 0 {
		return ""
	}
	return t.ArtistNames[0]
}

// SignalVector holds the features reported for one track. Dimensions the source omitted are absent, never zero.
type SignalVector struct {
	TrackID string
	Values  map[Dimension]float64
}

// TargetProfile is the per-dimension mean over a set of [SignalVector]s.
type TargetProfile map[Dimension]float64

// SortedDimensions returns the profile's dimensions in [Dimensions] order.
func (p TargetProfile) SortedDimensions() []Dimension {
	dims := make([]Dimension, 0, len(p))
	for _, d := range Dimensions {
		if _, ok := p[d]; ok {
			dims = append(dims, d)
		}
	}
	return dims
}

// SuggestionPair is a title/artist pair proposed by the text generator.
type SuggestionPair struct {
	Title      string
	ArtistName string
}

// Artist is an artist search result.
type Artist struct {
	ID       string
	Name     string
	ImageURL string
}

// ArtistAttribute is categorical metadata for an artist, keyed by the exact name that was looked up.
type ArtistAttribute struct {
	Name   string
	Gender string
}

// Playlist is a playlist created on the catalog.
type Playlist struct {
	ID   string
	Name string
	URL  string
}

// SynthesisRequest describes what the caller wants recommended.
type SynthesisRequest struct {
	Moods               []string
	Activities          []string
	PreferredArtists    []string
	SongCount           int
	GenreHints          []string
	AttributePreference string
}

// Limit returns SongCount clamped to [1, MaxSongCount], defaulting to DefaultSongCount.
func (r SynthesisRequest) Limit() int {
	switch {
	case r.SongCount <= 0:
		return DefaultSongCount
	case r.SongCount > MaxSongCount:
		return MaxSongCount
	default:
		return r.SongCount
	}
}

// Validate rejects requests that give the generator nothing to work with.
func (r SynthesisRequest) Validate() error {
	if len(r.Moods) == 0 && len(r.Activities) == 0 && len(r.PreferredArtists) == 0 && len(r.GenreHints) == 0 {
		return fmt.Errorf("at least one mood, activity, artist or genre is required")
	}
	if r.SongCount < 0 {
		return fmt.Errorf("song count must not be negative")
	}
	return nil
}

// Run records a completed synthesis.
type Run struct {
	ID        string
	SessionID string
	Request   SynthesisRequest
	Tracks    []Track
	CreatedAt time.Time
}

// TrackIDs returns the IDs of the run's tracks in result order.
func (r Run) TrackIDs() []string {
	ids := make([]string, len(r.Tracks))
	for i, t := range r.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// ExportedPlaylist records a playlist created from a run's tracks.
type ExportedPlaylist struct {
	ID         string
	RunID      string
	Name       string
	TrackCount int
	CreatedAt  time.Time
}

// DistinctPrimaryArtistIDs returns up to limit distinct primary artist IDs in first-seen order.
func DistinctPrimaryArtistIDs(tracks []Track, limit int) []string {
	var ids []string
	for _, t := range tracks {
		if len(ids) >= limit {
			break
		}
		id := t.PrimaryArtistID()
		if id == "" || slices.Contains(ids, id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
