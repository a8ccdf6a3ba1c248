package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	tu "github.com/desertthunder/mixtape/internal/testing"
)

func filterTracks() []models.Track {
	return []models.Track{
		{ID: "t1", ArtistNames: []string{"Björk"}},
		{ID: "t2", ArtistNames: []string{"Bonobo"}},
		{ID: "t3", ArtistNames: []string{"Björk", "Bonobo"}},
		{ID: "t4", ArtistNames: []string{"Unknown Artist"}},
		{ID: "t5"},
	}
}

func TestFilterByAttribute(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps exact matches only", func(t *testing.T) {
		lookup := &tu.FakeLookup{Attributes: map[string]string{"Björk": "Female", "Bonobo": "Male"}}

		kept, err := FilterByAttribute(ctx, lookup, filterTracks(), "Female")
		if err != nil {
			t.Fatalf("FilterByAttribute() error = %v", err)
		}
		if got := trackIDs(kept); len(got) != 2 || got[0] != "t1" || got[1] != "t3" {
			t.Errorf("FilterByAttribute() kept %v, want [t1 t3]", got)
		}
	})

	t.Run("comparison is case sensitive", func(t *testing.T) {
		lookup := &tu.FakeLookup{Attributes: map[string]string{"Björk": "Female"}}

		kept, err := FilterByAttribute(ctx, lookup, filterTracks(), "female")
		if err != nil {
			t.Fatalf("FilterByAttribute() error = %v", err)
		}
		if len(kept) != 0 {
			t.Errorf("FilterByAttribute() kept %v, want none", trackIDs(kept))
		}
	})

	t.Run("absent artist never passes", func(t *testing.T) {
		lookup := &tu.FakeLookup{Attributes: map[string]string{}}

		kept, err := FilterByAttribute(ctx, lookup, filterTracks(), "")
		if err != nil {
			t.Fatalf("FilterByAttribute() error = %v", err)
		}
		if len(kept) != 0 {
			t.Errorf("FilterByAttribute() kept %v, want none", trackIDs(kept))
		}
	})

	t.Run("one batched lookup with distinct names", func(t *testing.T) {
		lookup := &tu.FakeLookup{Attributes: map[string]string{"Björk": "Female"}}

		if _, err := FilterByAttribute(ctx, lookup, filterTracks(), "Female"); err != nil {
			t.Fatalf("FilterByAttribute() error = %v", err)
		}
		if len(lookup.Calls) != 1 {
			t.Fatalf("lookup called %d times, want 1", len(lookup.Calls))
		}
		want := []string{"Björk", "Bonobo", "Unknown Artist"}
		got := lookup.Calls[0]
		if len(got) != len(want) {
			t.Fatalf("lookup names = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("lookup names[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("lookup failure", func(t *testing.T) {
		lookup := &tu.FakeLookup{Err: errors.New("connection refused")}

		kept, err := FilterByAttribute(ctx, lookup, filterTracks(), "Female")
		if !errors.Is(err, shared.ErrLookupUnavailable) {
			t.Errorf("FilterByAttribute() error = %v, want ErrLookupUnavailable", err)
		}
		if kept != nil {
			t.Errorf("FilterByAttribute() returned %v on failure, want nil", kept)
		}
	})

	t.Run("nil lookup", func(t *testing.T) {
		if _, err := FilterByAttribute(ctx, nil, filterTracks(), "Female"); !errors.Is(err, shared.ErrLookupUnavailable) {
			t.Errorf("FilterByAttribute() error = %v, want ErrLookupUnavailable", err)
		}
	})

	t.Run("no artists skips lookup", func(t *testing.T) {
		lookup := &tu.FakeLookup{}

		kept, err := FilterByAttribute(ctx, lookup, []models.Track{{ID: "t5"}}, "Female")
		if err != nil {
			t.Fatalf("FilterByAttribute() error = %v", err)
		}
		if kept == nil || len(kept) != 0 {
			t.Errorf("FilterByAttribute() = %#v, want empty non-nil slice", kept)
		}
		if len(lookup.Calls) != 0 {
			t.Errorf("lookup called %d times, want 0", len(lookup.Calls))
		}
	})
}
