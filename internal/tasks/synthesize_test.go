package tasks

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	tu "github.com/desertthunder/mixtape/internal/testing"
)

const suggestionText = `"Dreams" by "Fleetwood Mac"
"Heroes" by "David Bowie"
"Missing Song" by "Nobody"
Enjoy the list!`

var (
	dreams = models.Track{ID: "t1", Name: "Dreams", ArtistIDs: []string{"a1"}, ArtistNames: []string{"Fleetwood Mac"}}
	heroes = models.Track{ID: "t2", Name: "Heroes", ArtistIDs: []string{"a2"}, ArtistNames: []string{"David Bowie"}}
)

type recorderFunc func(context.Context, models.Run) error

func (f recorderFunc) RecordRun(ctx context.Context, run models.Run) error { return f(ctx, run) }

// newFixture resolves two of three suggestions and recommends three tracks, one of them already resolved.
func newFixture() (*tu.FakeCatalog, *tu.FakeGenerator) {
	catalog := tu.NewFakeCatalog()
	catalog.AddTrack("Dreams", "Fleetwood Mac", dreams, map[models.Dimension]float64{
		models.Energy: 0.8, models.Key: 5, models.Tempo: 120,
	})
	catalog.AddTrack("Heroes", "David Bowie", heroes, map[models.Dimension]float64{
		models.Energy: 0.6, models.Key: 6, models.Tempo: 100,
	})
	catalog.Recommended = []models.Track{
		{ID: "r1", Name: "Rhiannon", ArtistIDs: []string{"a1"}, ArtistNames: []string{"Fleetwood Mac"}},
		{ID: "t2", Name: "Heroes (Remastered)", ArtistIDs: []string{"a2"}, ArtistNames: []string{"David Bowie"}},
		{ID: "r2", Name: "Army of Me", ArtistIDs: []string{"a3"}, ArtistNames: []string{"Björk"}},
	}
	return catalog, &tu.FakeGenerator{Text: suggestionText}
}

func request() models.SynthesisRequest {
	return models.SynthesisRequest{Moods: []string{"nostalgic"}, Activities: []string{"driving"}}
}

func ids(tracks []models.Track) []string {
	out := trackIDs(tracks)
	slices.Sort(out)
	return out
}

func TestPipeline_Synthesize(t *testing.T) {
	ctx := context.Background()

	t.Run("returns union of resolved tracks and recommendations", func(t *testing.T) {
		catalog, generator := newFixture()
		var states []State
		p := NewPipeline(PipelineOptions{
			Catalog:      catalog,
			Generator:    generator,
			OnTransition: func(s State) { states = append(states, s) },
		})

		tracks, err := p.Synthesize(ctx, request())
		require.NoError(t, err)

		assert.Equal(t, []string{"r1", "r2", "t1", "t2"}, ids(tracks))
		for _, tr := range tracks {
			if tr.ID == "t2" {
				assert.Equal(t, "Heroes (Remastered)", tr.Name, "recommendation should replace the resolved record")
			}
		}

		assert.Equal(t, []State{
			RequestReceived, SuggestionsFetched, TracksResolved, ProfileComputed, CandidatesFetched, Merged, Done,
		}, states)
		require.Len(t, generator.Prompts, 1)
		assert.Contains(t, generator.Prompts[0], "nostalgic")
		assert.Len(t, catalog.Searches, 3)
	})

	t.Run("seeds and targets recommendations from the profile", func(t *testing.T) {
		catalog, generator := newFixture()
		p := NewPipeline(PipelineOptions{Catalog: catalog, Generator: generator})

		_, err := p.Synthesize(ctx, models.SynthesisRequest{Moods: []string{"calm"}, SongCount: 25})
		require.NoError(t, err)

		q := catalog.LastQuery
		assert.Equal(t, []string{"a1", "a2"}, q.SeedArtists)
		assert.Equal(t, []string{"t1", "t2"}, q.SeedTracks)
		assert.Empty(t, q.SeedGenres)
		assert.Equal(t, 25, q.Limit)
		assert.InDelta(t, 0.7, q.Targets[models.Energy], 1e-9)
		assert.InDelta(t, 110, q.Targets[models.Tempo], 1e-9)
		assert.Equal(t, 6.0, q.Targets[models.Key], "key is rounded to an integer")
	})

	t.Run("attribute preference filters the merged list", func(t *testing.T) {
		catalog, generator := newFixture()
		lookup := &tu.FakeLookup{Attributes: map[string]string{"Björk": "Female", "Fleetwood Mac": "Group"}}
		var states []State
		p := NewPipeline(PipelineOptions{
			Catalog:      catalog,
			Generator:    generator,
			Lookup:       lookup,
			OnTransition: func(s State) { states = append(states, s) },
		})

		req := request()
		req.AttributePreference = "Female"
		tracks, err := p.Synthesize(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, []string{"r2"}, ids(tracks))
		assert.Contains(t, states, AttributeFiltered)
		assert.Len(t, lookup.Calls, 1)
	})

	t.Run("empty filtered result is not an error", func(t *testing.T) {
		catalog, generator := newFixture()
		p := NewPipeline(PipelineOptions{Catalog: catalog, Generator: generator, Lookup: &tu.FakeLookup{}})

		req := request()
		req.AttributePreference = "Female"
		tracks, err := p.Synthesize(ctx, req)
		require.NoError(t, err)
		assert.NotNil(t, tracks)
		assert.Empty(t, tracks)
	})

	t.Run("lookup failure", func(t *testing.T) {
		catalog, generator := newFixture()
		p := NewPipeline(PipelineOptions{
			Catalog:   catalog,
			Generator: generator,
			Lookup:    &tu.FakeLookup{Err: errors.New("dial tcp: connection refused")},
		})

		req := request()
		req.AttributePreference = "Female"
		tracks, err := p.Synthesize(ctx, req)
		assert.ErrorIs(t, err, shared.ErrLookupUnavailable)
		assert.Nil(t, tracks)
	})

	t.Run("tolerance keeps recommendations near the profile", func(t *testing.T) {
		catalog := tu.NewFakeCatalog()
		catalog.AddTrack("Dreams", "Fleetwood Mac", dreams, map[models.Dimension]float64{models.Energy: 0.8})
		catalog.AddTrack("Heroes", "David Bowie", heroes, map[models.Dimension]float64{models.Energy: 0.6})
		for id, energy := range map[string]float64{"r1": 0.72, "r2": 0.2} {
			catalog.Vectors[id] = models.SignalVector{TrackID: id, Values: map[models.Dimension]float64{models.Energy: energy}}
		}
		catalog.Recommended = []models.Track{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}}

		p := NewPipeline(PipelineOptions{
			Catalog:   catalog,
			Generator: &tu.FakeGenerator{Text: suggestionText},
			Tolerance: 0.1,
		})

		tracks, err := p.Synthesize(ctx, request())
		require.NoError(t, err)
		assert.Equal(t, []string{"r1", "t1", "t2"}, ids(tracks))
	})

	t.Run("invalid request", func(t *testing.T) {
		catalog, generator := newFixture()
		p := NewPipeline(PipelineOptions{Catalog: catalog, Generator: generator})

		_, err := p.Synthesize(ctx, models.SynthesisRequest{})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Empty(t, generator.Prompts)
	})

	t.Run("missing collaborators", func(t *testing.T) {
		_, err := NewPipeline(PipelineOptions{}).Synthesize(ctx, request())
		assert.ErrorIs(t, err, shared.ErrInvalidConfig)
	})
}

func TestPipeline_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no suggestions resolve", func(t *testing.T) {
		catalog := tu.NewFakeCatalog()
		p := NewPipeline(PipelineOptions{Catalog: catalog, Generator: &tu.FakeGenerator{Text: suggestionText}})

		tracks, err := p.Synthesize(ctx, request())
		assert.ErrorIs(t, err, shared.ErrInsufficientSignal)
		assert.ErrorIs(t, err, shared.ErrEmptyInput)
		assert.Nil(t, tracks)
		assert.Zero(t, catalog.LastQuery.SeedCount(), "recommendations must not be requested")
	})

	t.Run("unparseable generator output", func(t *testing.T) {
		p := NewPipeline(PipelineOptions{Catalog: tu.NewFakeCatalog(), Generator: &tu.FakeGenerator{Text: "I can't help with that."}})

		_, err := p.Synthesize(ctx, request())
		assert.ErrorIs(t, err, shared.ErrInsufficientSignal)
	})

	t.Run("resolved tracks without signal vectors", func(t *testing.T) {
		catalog := tu.NewFakeCatalog()
		catalog.AddTrack("Dreams", "Fleetwood Mac", dreams, nil)
		p := NewPipeline(PipelineOptions{Catalog: catalog, Generator: &tu.FakeGenerator{Text: suggestionText}})

		_, err := p.Synthesize(ctx, request())
		assert.ErrorIs(t, err, shared.ErrInsufficientSignal)
	})

	tests := []struct {
		name  string
		setup func(*tu.FakeCatalog, *tu.FakeGenerator)
		want  error
	}{
		{
			name:  "generator failure",
			setup: func(_ *tu.FakeCatalog, g *tu.FakeGenerator) { g.Err = shared.ErrServiceUnavailable },
			want:  shared.ErrServiceUnavailable,
		},
		{
			name:  "expired authorization during search",
			setup: func(c *tu.FakeCatalog, _ *tu.FakeGenerator) { c.SearchErr = shared.ErrAuthExpired },
			want:  shared.ErrAuthExpired,
		},
		{
			name: "upstream error from recommendations",
			setup: func(c *tu.FakeCatalog, _ *tu.FakeGenerator) {
				c.RecommendErr = &shared.UpstreamError{Status: 503, Body: "unavailable"}
			},
			want: shared.ErrAPIRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog, generator := newFixture()
			tt.setup(catalog, generator)
			recorded := false
			p := NewPipeline(PipelineOptions{
				Catalog:   catalog,
				Generator: generator,
				Recorder: recorderFunc(func(context.Context, models.Run) error {
					recorded = true
					return nil
				}),
			})

			tracks, err := p.Synthesize(ctx, request())
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, tracks)
			assert.False(t, recorded, "failed runs are not recorded")
		})
	}
}

func TestPipeline_Progress(t *testing.T) {
	ctx := context.Background()

	t.Run("reports every transition in order", func(t *testing.T) {
		catalog, generator := newFixture()
		p := NewPipeline(PipelineOptions{Catalog: catalog, Generator: generator})

		progress := make(chan ProgressUpdate, 100)
		_, err := p.SynthesizeWithProgress(ctx, request(), progress)
		require.NoError(t, err)
		close(progress)

		var updates []ProgressUpdate
		for u := range progress {
			updates = append(updates, u)
		}
		require.NotEmpty(t, updates)
		assert.Equal(t, RequestReceived, updates[0].State)
		assert.Equal(t, Done, updates[len(updates)-1].State)

		searches := 0
		for i, u := range updates {
			assert.NotEmpty(t, u.Message)
			if i > 0 {
				assert.GreaterOrEqual(t, int(u.State), int(updates[i-1].State), "states only move forward")
			}
			if u.State == TracksResolved && u.Total == 3 && u.Step <= 3 {
				searches++
			}
		}
		assert.GreaterOrEqual(t, searches, 3)
	})

	t.Run("never blocks on a full channel", func(t *testing.T) {
		catalog, generator := newFixture()
		p := NewPipeline(PipelineOptions{Catalog: catalog, Generator: generator})

		tracks, err := p.SynthesizeWithProgress(ctx, request(), make(chan ProgressUpdate))
		require.NoError(t, err)
		assert.Len(t, tracks, 4)
	})
}

func TestPipeline_Recorder(t *testing.T) {
	ctx := context.Background()

	t.Run("records completed runs", func(t *testing.T) {
		catalog, generator := newFixture()
		var runs []models.Run
		p := NewPipeline(PipelineOptions{
			Catalog:   catalog,
			Generator: generator,
			SessionID: "session-1",
			Recorder: recorderFunc(func(_ context.Context, run models.Run) error {
				runs = append(runs, run)
				return nil
			}),
		})

		tracks, err := p.Synthesize(ctx, request())
		require.NoError(t, err)
		require.Len(t, runs, 1)

		run := runs[0]
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, "session-1", run.SessionID)
		assert.Equal(t, request(), run.Request)
		assert.Equal(t, trackIDs(tracks), run.TrackIDs())
		assert.False(t, run.CreatedAt.IsZero())
	})

	t.Run("recorder failure does not fail the run", func(t *testing.T) {
		catalog, generator := newFixture()
		p := NewPipeline(PipelineOptions{
			Catalog:   catalog,
			Generator: generator,
			Recorder: recorderFunc(func(context.Context, models.Run) error {
				return errors.New("database is locked")
			}),
		})

		tracks, err := p.Synthesize(ctx, request())
		require.NoError(t, err)
		assert.Len(t, tracks, 4)
	})
}

func TestPipeline_Tracing(t *testing.T) {
	ctx := context.Background()

	spanNames := func(sr *tracetest.SpanRecorder) []string {
		var names []string
		for _, s := range sr.Ended() {
			names = append(names, s.Name())
		}
		return names
	}

	t.Run("records a span per stage", func(t *testing.T) {
		sr := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
		catalog, generator := newFixture()

		p := NewPipeline(PipelineOptions{Catalog: catalog, Generator: generator, TracerProvider: tp})
		_, err := p.Synthesize(ctx, request())
		require.NoError(t, err)

		names := spanNames(sr)
		for _, want := range []string{"synthesize", "suggestions", "resolve", "profile", "candidates", "merge", "filter"} {
			assert.Contains(t, names, want)
		}
	})

	t.Run("marks the failing stage", func(t *testing.T) {
		sr := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
		catalog, generator := newFixture()
		catalog.RecommendErr = &shared.UpstreamError{Status: 500}

		p := NewPipeline(PipelineOptions{Catalog: catalog, Generator: generator, TracerProvider: tp})
		_, err := p.Synthesize(ctx, request())
		require.Error(t, err)

		failed := map[string]bool{}
		for _, s := range sr.Ended() {
			if s.Status().Code == codes.Error {
				failed[s.Name()] = true
			}
		}
		assert.Equal(t, map[string]bool{"synthesize": true, "candidates": true}, failed)
		assert.NotContains(t, spanNames(sr), "merge")
	})
}

func TestRecommendationQuery(t *testing.T) {
	profile := models.TargetProfile{models.Energy: 0.55, models.Mode: 0.5, models.TimeSignature: 3.6}

	t.Run("fills remaining seeds with tracks", func(t *testing.T) {
		resolved := []models.Track{
			{ID: "t1", ArtistIDs: []string{"a1"}},
			{ID: "t2", ArtistIDs: []string{"a1"}},
			{ID: "t3", ArtistIDs: []string{"a2"}},
			{ID: "t4", ArtistIDs: []string{"a2"}},
		}

		q := RecommendationQuery(resolved, profile, 10)
		assert.Equal(t, []string{"a1", "a2"}, q.SeedArtists)
		assert.Equal(t, []string{"t1", "t2", "t3"}, q.SeedTracks)
		assert.Equal(t, 5, q.SeedCount())
		assert.Equal(t, 10, q.Limit)
	})

	t.Run("artists take the whole budget", func(t *testing.T) {
		var resolved []models.Track
		for _, id := range []string{"1", "2", "3", "4", "5", "6"} {
			resolved = append(resolved, models.Track{ID: "t" + id, ArtistIDs: []string{"a" + id}})
		}

		q := RecommendationQuery(resolved, profile, 10)
		assert.Len(t, q.SeedArtists, 5)
		assert.Empty(t, q.SeedTracks)
	})

	t.Run("rounds discrete dimensions only", func(t *testing.T) {
		q := RecommendationQuery([]models.Track{{ID: "t1", ArtistIDs: []string{"a1"}}}, profile, 10)
		assert.Equal(t, 0.55, q.Targets[models.Energy])
		assert.Equal(t, 1.0, q.Targets[models.Mode])
		assert.Equal(t, 4.0, q.Targets[models.TimeSignature])
		assert.Equal(t, 0.5, profile[models.Mode], "profile must not be modified")
	})
}
