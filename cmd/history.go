package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/repositories"
	"github.com/desertthunder/mixtape/internal/shared"
)

// History lists recorded runs for the configured session, or every session with --all.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	runs, err := r.history()
	if err != nil {
		return err
	}

	opts := repositories.ListOptions{Limit: int(cmd.Int("limit"))}
	if !cmd.Bool("all") {
		opts.SessionID = r.cfg().Session.ID
	}

	list, err := runs.List(ctx, opts)
	if err != nil {
		return err
	}
	return r.writePlain("%s", r.palette.Runs(list))
}

// HistoryShow prints the tracks of one run.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	runs, err := r.history()
	if err != nil {
		return err
	}

	run, err := runs.Get(ctx, id)
	if err != nil {
		return err
	}

	title := "Run " + run.ID
	if summary := formatter.RequestSummary(run.Request); summary != "" {
		title += " (" + summary + ")"
	}
	return r.writeTracks(format, title, run.Tracks, "")
}

// HistoryDelete removes a recorded run.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	runs, err := r.history()
	if err != nil {
		return err
	}

	if err := runs.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted run %s\n", id)
}
