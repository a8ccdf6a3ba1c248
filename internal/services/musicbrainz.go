// MusicBrainz implementation of [AttributeLookup]
package services

import (
	"context"
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
	DefaultMusicBrainzBaseURL = "https://musicbrainz.org/ws/2"
	// namesPerQuery bounds the OR-joined Lucene query so it stays well under URL limits.
	namesPerQuery = 25
	// MusicBrainz allows roughly one request per second per client.
	MusicBrainzRateLimit = 1.0
)

type mbArtist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Score  int    `json:"score"`
}

type mbArtistSearch struct {
	Count   int        `json:"count"`
	Artists []mbArtist `json:"artists"`
}

// MusicBrainzLookup implements [AttributeLookup] with batched artist searches.
type MusicBrainzLookup struct {
	client    *Client
	userAgent string
}

// NewMusicBrainzLookup creates a lookup over client, sending userAgent on every request.
func NewMusicBrainzLookup(client *Client, userAgent string) *MusicBrainzLookup {
	return &MusicBrainzLookup{client: client, userAgent: userAgent}
}

// LookupByNames searches for every distinct name and keeps the first result whose name equals the query exactly.
//
// Any failed request fails the whole lookup with [shared.ErrLookupUnavailable].
func (m *MusicBrainzLookup) LookupByNames(ctx context.Context, names []string) (map[string]models.ArtistAttribute, error) {
	distinct := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" && !slices.Contains(distinct, n) {
			distinct = append(distinct, n)
		}
	}

	found := make(map[string]models.ArtistAttribute, len(distinct))
	for batch := range slices.Chunk(distinct, namesPerQuery) {
		artists, err := m.search(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrLookupUnavailable, err)
		}

		for _, a := range artists {
			if _, seen := found[a.Name]; seen || !slices.Contains(batch, a.Name) {
				continue
			}
			found[a.Name] = models.ArtistAttribute{Name: a.Name, Gender: a.Gender}
		}
	}
	return found, nil
}

func (m *MusicBrainzLookup) search(ctx context.Context, names []string) ([]mbArtist, error) {
	terms := make([]string, len(names))
	for i, n := range names {
		terms[i] = "artist:" + quoteLucene(n)
	}

	params := url.Values{}
	params.Set("query", strings.Join(terms, " OR "))
	params.Set("fmt", "json")
	params.Set("limit", strconv.Itoa(min(100, len(names)*4)))

	header := http.Header{}
	if m.userAgent != "" {
		header.Set("User-Agent", m.userAgent)
	}

	var resp mbArtistSearch
	if err := m.client.Call(ctx, APIRequest{Method: http.MethodGet, Endpoint: "artist/", Params: params, Header: header}, &resp); err != nil {
		return nil, err
	}
	return resp.Artists, nil
}

// quoteLucene wraps s in double quotes, escaping characters that would end the phrase.
func quoteLucene(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
