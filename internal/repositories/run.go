package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// RunRepository records synthesis runs and the playlists exported from them.
//
// It satisfies tasks.RunRecorder and tasks.PlaylistRecorder.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// ListOptions filters [RunRepository.List]. An empty SessionID lists every session.
type ListOptions struct {
	SessionID string
	Limit     int
}

const runColumns = `id, session_id, moods, activities, preferred_artists, genre_hints, attribute_preference, song_count, created_at`

// RecordRun inserts run and its tracks in one transaction. An empty ID or zero CreatedAt is filled in.
func (r *RunRepository) RecordRun(ctx context.Context, run models.Run) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	lists := make([]string, 0, 4)
	for _, values := range [][]string{run.Request.Moods, run.Request.Activities, run.Request.PreferredArtists, run.Request.GenreHints} {
		encoded, err := encodeList(values)
		if err != nil {
			return err
		}
		lists = append(lists, encoded)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.SessionID,
		lists[0],
		lists[1],
		lists[2],
		lists[3],
		run.Request.AttributePreference,
		run.Request.Limit(),
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_tracks (run_id, position, track_id, name, artist_ids, artist_names, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare track insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range run.Tracks {
		artistIDs, err := encodeList(t.ArtistIDs)
		if err != nil {
			return err
		}
		artistNames, err := encodeList(t.ArtistNames)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, t.ID, t.Name, artistIDs, artistNames, t.ImageURL); err != nil {
			return fmt.Errorf("failed to insert run track %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// Get retrieves a run with its tracks.
func (r *RunRepository) Get(ctx context.Context, id string) (*models.Run, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if run.Tracks, err = r.tracks(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

// Latest retrieves the most recent run, optionally scoped to a session.
func (r *RunRepository) Latest(ctx context.Context, sessionID string) (*models.Run, error) {
	runs, err := r.List(ctx, ListOptions{SessionID: sessionID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrRunNotFound
	}
	return runs[0], nil
}

// List retrieves runs newest first, each with its tracks.
func (r *RunRepository) List(ctx context.Context, opts ListOptions) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	args := []any{}

	if opts.SessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, opts.SessionID)
	}

	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, listLimit(opts.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	// In-memory databases hold a single connection, so rows must be released before loading tracks.
	rows.Close()

	for _, run := range runs {
		if run.Tracks, err = r.tracks(ctx, run.ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Delete removes a run and its tracks. Playlists exported from it keep their record without a run.
func (r *RunRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

func (r *RunRepository) tracks(ctx context.Context, runID string) ([]models.Track, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT track_id, name, artist_ids, artist_names, image_url
		FROM run_tracks
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run tracks: %w", err)
	}
	defer rows.Close()

	tracks := []models.Track{}
	for rows.Next() {
		var (
			t           models.Track
			artistIDs   string
			artistNames string
		)
		if err := rows.Scan(&t.ID, &t.Name, &artistIDs, &artistNames, &t.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan run track: %w", err)
		}
		if t.ArtistIDs, err = decodeList(artistIDs); err != nil {
			return nil, err
		}
		if t.ArtistNames, err = decodeList(artistNames); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		run        models.Run
		moods      string
		activities string
		artists    string
		genres     string
	)

	err := s.Scan(
		&run.ID,
		&run.SessionID,
		&moods,
		&activities,
		&artists,
		&genres,
		&run.Request.AttributePreference,
		&run.Request.SongCount,
		&run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	for _, field := range []struct {
		dst  *[]string
		data string
	}{
		{&run.Request.Moods, moods},
		{&run.Request.Activities, activities},
		{&run.Request.PreferredArtists, artists},
		{&run.Request.GenreHints, genres},
	} {
		if *field.dst, err = decodeList(field.data); err != nil {
			return nil, err
		}
	}
	return &run, nil
}
