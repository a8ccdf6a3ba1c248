package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/tasks"
)

// PlaylistCreate exports a recorded run (the latest by default) to a new private playlist.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	runs, err := r.history()
	if err != nil {
		return err
	}

	var run *models.Run
	if id := cmd.String("run"); id != "" {
		run, err = runs.Get(ctx, id)
	} else {
		run, err = runs.Latest(ctx, r.cfg().Session.ID)
	}
	if err != nil {
		return err
	}

	catalog, err := r.spotify(ctx)
	if err != nil {
		return err
	}

	exporter := tasks.NewPlaylistExporter(catalog, runs, shared.WithLogger(r.logger, "component", "export"))
	playlist, err := exporter.ExportRun(ctx, *run, cmd.String("name"))
	if err != nil {
		return err
	}

	r.writePlain("%s\n", r.palette.OK("✓ Created playlist "+playlist.Name))
	r.writePlain("Tracks: %d\n", len(run.Tracks))
	if playlist.URL != "" {
		r.writePlain("URL: %s\n", playlist.URL)
	}
	return nil
}

// PlaylistList shows exported playlists newest first.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	runs, err := r.history()
	if err != nil {
		return err
	}

	playlists, err := runs.Playlists(ctx, cmd.String("run"), int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if len(playlists) == 0 {
		return r.writePlain("%s\n", r.palette.Warn("No playlists exported."))
	}

	for _, p := range playlists {
		run := p.RunID
		if run == "" {
			run = "-"
		}
		r.writePlain("%s  %s  %d tracks  run %s\n", r.palette.OK(p.Name), p.ID, p.TrackCount, run)
	}
	return nil
}
