package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixtape/internal/shared"
)

// Genres lists recommendation genre seeds.
func (r *Runner) Genres(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.spotify(ctx)
	if err != nil {
		return err
	}

	genres, err := catalog.AvailableGenres(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(genres, true)
	}
	return r.writePlain("%s\n", strings.Join(genres, "\n"))
}

// Artists searches the catalog for artists.
func (r *Runner) Artists(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	catalog, err := r.spotify(ctx)
	if err != nil {
		return err
	}

	artists, err := catalog.SearchArtists(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(artists, true)
	}
	return r.writePlain("%s", r.palette.Artists(artists))
}
