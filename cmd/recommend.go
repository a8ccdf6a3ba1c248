package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/tasks"
)

// Recommend runs the synthesis pipeline and prints or writes the result.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	req := models.SynthesisRequest{
		Moods:               normalizeAll(cmd.StringSlice("mood")),
		Activities:          normalizeAll(cmd.StringSlice("activity")),
		PreferredArtists:    trimAll(cmd.StringSlice("artist")),
		GenreHints:          normalizeAll(cmd.StringSlice("genre")),
		SongCount:           int(cmd.Int("count")),
		AttributePreference: strings.TrimSpace(cmd.String("attribute")),
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrMissingArgument, err)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	pipeline, err := r.pipeline(ctx, req, cmd.Float("tolerance"))
	if err != nil {
		return err
	}

	r.logger.Info("synthesizing", "request", formatter.RequestSummary(req), "count", req.Limit())

	quiet := cmd.Bool("quiet") || format != formatter.Text
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if !quiet {
				r.writePlain("%s\n", r.palette.Help(update.Message))
			}
		}
	}()

	tracks, err := pipeline.SynthesizeWithProgress(ctx, req, progress)
	close(progress)
	<-done

	if err != nil {
		return err
	}
	return r.writeTracks(format, "Recommendations", tracks, cmd.String("output"))
}

// pipeline wires the synthesizer for req. Run history is best effort.
func (r *Runner) pipeline(ctx context.Context, req models.SynthesisRequest, tolerance float64) (*tasks.Pipeline, error) {
	catalog, err := r.spotify(ctx)
	if err != nil {
		return nil, err
	}
	generator, err := r.openAI()
	if err != nil {
		return nil, err
	}

	opts := tasks.PipelineOptions{
		Catalog:   catalog,
		Generator: generator,
		SessionID: r.cfg().Session.ID,
		Tolerance: tolerance,
		Logger:    shared.WithLogger(r.logger, "component", "pipeline"),
	}

	if req.AttributePreference != "" {
		opts.Lookup = r.musicBrainz()
	}

	if runs, err := r.history(); err != nil {
		r.logger.Warn("run history disabled", "error", err)
	} else {
		opts.Recorder = runs
	}

	return tasks.NewPipeline(opts), nil
}

// writeTracks prints tracks in format, or writes them to path when set.
//
// A Markdown export to a path without an extension becomes a directory with a README and the cover art.
func (r *Runner) writeTracks(format formatter.Format, title string, tracks []models.Track, path string) error {
	if path != "" {
		if format == formatter.Markdown && filepath.Ext(path) == "" {
			result, err := formatter.WriteMarkdownExport(r.client(), title, tracks, path)
			if err != nil {
				return err
			}
			return r.writePlain("✓ Wrote %d tracks to %s\n", len(tracks), result.Directory)
		}

		if err := formatter.WriteExport(format, title, tracks, path); err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %d tracks to %s\n", len(tracks), path)
	}

	if format == formatter.Text {
		return r.writePlain("%s", r.palette.Tracks(title, tracks))
	}

	data, err := formatter.Export(format, title, tracks)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

func normalizeAll(values []string) []string {
	var out []string
	for _, v := range values {
		if n := shared.NormalizeName(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
