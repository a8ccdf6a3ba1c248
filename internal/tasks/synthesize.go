package tasks

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/signal"
)

// maxSeeds is the catalog's cap on recommendation seeds.
const maxSeeds = 5

// Synthesizer turns a request into a deduplicated list of catalog tracks.
type Synthesizer interface {
	Synthesize(ctx context.Context, req models.SynthesisRequest) ([]models.Track, error)
}

// RunRecorder persists completed runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, run models.Run) error
}

// PipelineOptions wires a [Pipeline]. Catalog and Generator are required.
type PipelineOptions struct {
	Catalog   services.Catalog
	Generator services.Generator
	// Lookup serves attribute filtering. Requests with an attribute preference fail without it.
	Lookup services.AttributeLookup
	// Recorder, when set, receives every successful run. Its failures are logged only.
	Recorder  RunRecorder
	SessionID string
	// Tolerance, when positive, additionally keeps only recommendations whose own features fall within this
	// relative band of the target profile.
	Tolerance float64
	// OnTransition is called each time the pipeline enters a state.
	OnTransition func(State)
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
	Logger         *log.Logger
}

// Pipeline implements [Synthesizer].
type Pipeline struct {
	catalog      services.Catalog
	generator    services.Generator
	lookup       services.AttributeLookup
	recorder     RunRecorder
	sessionID    string
	tolerance    float64
	onTransition func(State)
	logger       *log.Logger
	tracer       trace.Tracer
}

// NewPipeline creates a [Pipeline] from opts.
func NewPipeline(opts PipelineOptions) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	return &Pipeline{
		catalog:      opts.Catalog,
		generator:    opts.Generator,
		lookup:       opts.Lookup,
		recorder:     opts.Recorder,
		sessionID:    opts.SessionID,
		tolerance:    opts.Tolerance,
		onTransition: opts.OnTransition,
		logger:       opts.Logger,
		tracer:       opts.TracerProvider.Tracer(shared.TracerName),
	}
}

// run carries the intermediate values of one synthesis.
type run struct {
	req        models.SynthesisRequest
	pairs      []models.SuggestionPair
	resolved   []models.Track
	profile    models.TargetProfile
	candidates []models.Track
	result     []models.Track
}

// Synthesize runs the pipeline without progress reporting.
func (p *Pipeline) Synthesize(ctx context.Context, req models.SynthesisRequest) ([]models.Track, error) {
	return p.SynthesizeWithProgress(ctx, req, nil)
}

// SynthesizeWithProgress runs every stage in order, sending updates to progress without blocking.
//
// The first failing stage ends the run and its error is returned unchanged; no partial result is returned.
// An attribute filter that keeps nothing yields an empty, non-nil slice.
func (p *Pipeline) SynthesizeWithProgress(ctx context.Context, req models.SynthesisRequest, progress chan<- ProgressUpdate) ([]models.Track, error) {
	if p.catalog == nil || p.generator == nil {
		return nil, fmt.Errorf("%w: pipeline needs a catalog and a generator", shared.ErrInvalidConfig)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	ctx, span := p.tracer.Start(ctx, "synthesize", trace.WithAttributes(
		attribute.Int("request.song_count", req.Limit()),
		attribute.Bool("request.attribute_filter", req.AttributePreference != ""),
	))
	defer span.End()

	started := time.Now()
	r := &run{req: req}
	p.enter(RequestReceived, progress, requestUpdate())

	stages := []struct {
		name string
		fn   func(context.Context, *run, chan<- ProgressUpdate) error
	}{
		{"suggestions", p.fetchSuggestions},
		{"resolve", p.resolveTracks},
		{"profile", p.computeProfile},
		{"candidates", p.fetchCandidates},
		{"merge", p.merge},
		{"filter", p.filter},
	}
	for _, stage := range stages {
		if err := p.traced(ctx, stage.name, r, progress, stage.fn); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.logger.Error("synthesis failed", "stage", stage.name, "error", err)
			return nil, err
		}
	}

	p.enter(Done, progress, doneUpdate(len(r.result)))
	span.SetAttributes(attribute.Int("result.tracks", len(r.result)))
	p.logger.Info("synthesis complete", "tracks", len(r.result), "duration", time.Since(started))

	p.record(ctx, r)
	return r.result, nil
}

func (p *Pipeline) traced(
	ctx context.Context,
	name string,
	r *run,
	progress chan<- ProgressUpdate,
	fn func(context.Context, *run, chan<- ProgressUpdate) error,
) error {
	ctx, span := p.tracer.Start(ctx, name)
	defer span.End()

	if err := fn(ctx, r, progress); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// enter reports a state transition to the hook, the log and the progress channel.
func (p *Pipeline) enter(s State, progress chan<- ProgressUpdate, update ProgressUpdate) {
	p.logger.Debug("state", "state", s.String())
	if p.onTransition != nil {
		p.onTransition(s)
	}
	sendProgress(progress, update)
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (p *Pipeline) fetchSuggestions(ctx context.Context, r *run, progress chan<- ProgressUpdate) error {
	text, err := p.generator.Generate(ctx, BuildPrompt(r.req))
	if err != nil {
		return err
	}

	pairs, skipped := ParseSuggestions(text)
	if skipped > 0 {
		p.logger.Warn("skipped malformed suggestion lines", "count", skipped)
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("suggestions.parsed", len(pairs)),
		attribute.Int("suggestions.skipped", skipped),
	)

	r.pairs = pairs
	p.enter(SuggestionsFetched, progress, suggestionsUpdate(len(pairs), skipped))
	return nil
}

func (p *Pipeline) resolveTracks(ctx context.Context, r *run, progress chan<- ProgressUpdate) error {
	for i, pair := range r.pairs {
		sendProgress(progress, resolveUpdate(i+1, len(r.pairs), pair.Title))

		track, err := p.catalog.SearchTrack(ctx, pair.Title, pair.ArtistName)
		if errors.Is(err, shared.ErrTrackNotFound) {
			p.logger.Debug("suggestion not in catalog", "title", pair.Title, "artist", pair.ArtistName)
			continue
		}
		if err != nil {
			return err
		}
		r.resolved = append(r.resolved, *track)
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("tracks.resolved", len(r.resolved)))
	p.enter(TracksResolved, progress, ProgressUpdate{
		State:   TracksResolved,
		Step:    len(r.resolved),
		Total:   len(r.pairs),
		Message: fmt.Sprintf("Resolved %d of %d suggestions", len(r.resolved), len(r.pairs)),
	})
	return nil
}

func (p *Pipeline) computeProfile(ctx context.Context, r *run, progress chan<- ProgressUpdate) error {
	if len(r.resolved) == 0 {
		return shared.ErrInsufficientSignal
	}

	vectors, err := p.catalog.SignalVectors(ctx, trackIDs(r.resolved))
	if err != nil {
		return err
	}

	profile, err := signal.Aggregate(vectors)
	if errors.Is(err, shared.ErrEmptyInput) {
		return fmt.Errorf("%w: no signal vectors for %d resolved tracks", shared.ErrInsufficientSignal, len(r.resolved))
	}
	if err != nil {
		return err
	}

	r.profile = profile
	p.enter(ProfileComputed, progress, profileUpdate(len(profile)))
	return nil
}

func (p *Pipeline) fetchCandidates(ctx context.Context, r *run, progress chan<- ProgressUpdate) error {
	q := RecommendationQuery(r.resolved, r.profile, r.req.Limit())
	candidates, err := p.catalog.Recommendations(ctx, q)
	if err != nil {
		return err
	}

	if p.tolerance > 0 && len(candidates) > 0 {
		candidates, err = p.matchProfile(ctx, r.profile, candidates)
		if err != nil {
			return err
		}
	}

	r.candidates = candidates
	p.enter(CandidatesFetched, progress, candidatesUpdate(len(candidates)))
	return nil
}

// matchProfile keeps candidates whose features sit within the pipeline's tolerance of profile.
func (p *Pipeline) matchProfile(ctx context.Context, profile models.TargetProfile, candidates []models.Track) ([]models.Track, error) {
	vectors, err := p.catalog.SignalVectors(ctx, trackIDs(candidates))
	if err != nil {
		return nil, err
	}

	matched := signal.Match(profile, vectors, p.tolerance)
	kept := slices.DeleteFunc(slices.Clone(candidates), func(t models.Track) bool {
		return !slices.Contains(matched, t.ID)
	})
	p.logger.Debug("profile match", "candidates", len(candidates), "kept", len(kept), "tolerance", p.tolerance)
	return kept, nil
}

func (p *Pipeline) merge(_ context.Context, r *run, progress chan<- ProgressUpdate) error {
	r.result = Merge(r.resolved, r.candidates)
	p.enter(Merged, progress, mergedUpdate(len(r.result)))
	return nil
}

func (p *Pipeline) filter(ctx context.Context, r *run, progress chan<- ProgressUpdate) error {
	if r.req.AttributePreference == "" {
		return nil
	}

	kept, err := FilterByAttribute(ctx, p.lookup, r.result, r.req.AttributePreference)
	if err != nil {
		return err
	}

	total := len(r.result)
	r.result = kept
	p.enter(AttributeFiltered, progress, filteredUpdate(len(kept), total, r.req.AttributePreference))
	return nil
}

func (p *Pipeline) record(ctx context.Context, r *run) {
	if p.recorder == nil {
		return
	}
	err := p.recorder.RecordRun(ctx, models.Run{
		ID:        shared.GenerateID(),
		SessionID: p.sessionID,
		Request:   r.req,
		Tracks:    r.result,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		p.logger.Warn("failed to record run", "error", err)
	}
}

// RecommendationQuery seeds recommendations with up to five distinct primary artists of resolved, fills the
// remaining seed budget with resolved track IDs and targets profile with discrete dimensions rounded.
func RecommendationQuery(resolved []models.Track, profile models.TargetProfile, limit int) services.RecommendationQuery {
	artists := models.DistinctPrimaryArtistIDs(resolved, maxSeeds)

	var tracks []string
	for _, t := range resolved {
		if len(tracks) >= maxSeeds-len(artists) {
			break
		}
		if !slices.Contains(tracks, t.ID) {
			tracks = append(tracks, t.ID)
		}
	}

	targets := maps.Clone(profile)
	for d, v := range targets {
		if d.IsDiscrete() {
			targets[d] = math.Round(v)
		}
	}

	return services.RecommendationQuery{
		SeedArtists: artists,
		SeedTracks:  tracks,
		Targets:     targets,
		Limit:       limit,
	}
}

func trackIDs(tracks []models.Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}
