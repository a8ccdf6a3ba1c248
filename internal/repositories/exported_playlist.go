package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
)

// RecordPlaylist inserts an exported playlist. An empty RunID is stored as NULL.
func (r *RunRepository) RecordPlaylist(ctx context.Context, p models.ExportedPlaylist) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	var runID sql.NullString
	if p.RunID != "" {
		runID = sql.NullString{String: p.RunID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exported_playlists (id, run_id, name, track_count, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, runID, p.Name, p.TrackCount, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}
	return nil
}

// GetPlaylist retrieves an exported playlist by its catalog ID.
func (r *RunRepository) GetPlaylist(ctx context.Context, id string) (*models.ExportedPlaylist, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, run_id, name, track_count, created_at
		FROM exported_playlists
		WHERE id = ?
	`, id)

	p, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPlaylistNotFound, id)
	}
	return p, err
}

// Playlists lists exported playlists newest first. A non-empty runID restricts the list to that run.
func (r *RunRepository) Playlists(ctx context.Context, runID string, limit int) ([]*models.ExportedPlaylist, error) {
	query := `SELECT id, run_id, name, track_count, created_at FROM exported_playlists`
	args := []any{}

	if runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, listLimit(limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.ExportedPlaylist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return playlists, nil
}

func scanPlaylist(s scanner) (*models.ExportedPlaylist, error) {
	var (
		p     models.ExportedPlaylist
		runID sql.NullString
	)

	err := s.Scan(&p.ID, &runID, &p.Name, &p.TrackCount, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	p.RunID = runID.String
	return &p, nil
}
