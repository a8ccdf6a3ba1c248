package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
)

// FilterByAttribute keeps the tracks whose primary artist's looked-up attribute equals value exactly.
//
// Distinct primary-artist names go to lookup in a single call. Tracks without an artist, and artists the lookup
// does not know, are dropped. A failed lookup returns [shared.ErrLookupUnavailable] and no tracks.
func FilterByAttribute(ctx context.Context, lookup services.AttributeLookup, tracks []models.Track, value string) ([]models.Track, error) {
	if lookup == nil {
		return nil, fmt.Errorf("%w: no attribute lookup configured", shared.ErrLookupUnavailable)
	}

	var names []string
	for _, t := range tracks {
		if name := t.PrimaryArtistName(); name != "" && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	kept := make([]models.Track, 0, len(tracks))
	if len(names) == 0 {
		return kept, nil
	}

	attrs, err := lookup.LookupByNames(ctx, names)
	if err != nil {
		if errors.Is(err, shared.ErrLookupUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrLookupUnavailable, err)
	}

	for _, t := range tracks {
		attr, ok := attrs[t.PrimaryArtistName()]
		if ok && attr.Gender == value {
			kept = append(kept, t)
		}
	}
	return kept, nil
}
