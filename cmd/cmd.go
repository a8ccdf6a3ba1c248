// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// recommendCommand runs the synthesis pipeline.
func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"rec"},
		Usage:   "Synthesize recommendations from moods, activities, artists and genres",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "mood",
				Aliases: []string{"m"},
				Usage:   "Mood to match (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:    "activity",
				Aliases: []string{"a"},
				Usage:   "Activity the music is for (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "artist",
				Usage: "Preferred artist (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:    "genre",
				Aliases: []string{"g"},
				Usage:   "Genre hint, see 'mixtape genres' (repeatable)",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Number of songs to ask for (max 100)",
				Value:   10,
			},
			&cli.StringFlag{
				Name:  "attribute",
				Usage: "Keep only tracks whose primary artist has this gender (e.g. Female, Male)",
			},
			&cli.FloatFlag{
				Name:  "tolerance",
				Usage: "Keep only recommendations within this relative band of the target profile (0 disables)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, markdown, csv or json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the result to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Hide progress messages",
			},
		},
		Action: r.Recommend,
	}
}

// playlistCommand exports results to the catalog.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Export recommendations as Spotify playlists",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a private playlist from a recorded run",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Playlist name (defaults to the run date)",
					},
					&cli.StringFlag{
						Name:  "run",
						Usage: "Run ID to export (defaults to the latest run)",
					},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "list",
				Usage: "List exported playlists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "run",
						Usage: "Only playlists exported from this run",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to show",
						Value: 20,
					},
				},
				Action: r.PlaylistList,
			},
		},
	}
}

// genresCommand lists recommendation genre seeds.
func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "genres",
		Usage: "List genres usable with --genre",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Genres,
	}
}

// artistsCommand searches the catalog for artists.
func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artists",
		Usage: "Search artists by name",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of artists to return",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Artists,
	}
}

// historyCommand shows recorded runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Include runs from every session",
			},
		},
		Action: r.History,
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the tracks of one run",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, markdown, csv or json",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a recorded run",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a configuration file from the template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
			{
				Name:   "status",
				Usage:  "Show migration status",
				Action: r.SetupStatus,
			},
		},
	}
}
