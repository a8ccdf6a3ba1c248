package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
)

// playlistDescription is attached to every exported playlist.
const playlistDescription = "Made with mixtape"

// PlaylistRecorder persists exported playlists.
type PlaylistRecorder interface {
	RecordPlaylist(ctx context.Context, p models.ExportedPlaylist) error
}

// PlaylistExporter writes track lists to new private playlists owned by the session's user.
type PlaylistExporter struct {
	catalog  services.Catalog
	recorder PlaylistRecorder
	logger   *log.Logger
}

// NewPlaylistExporter creates an exporter. recorder may be nil.
func NewPlaylistExporter(catalog services.Catalog, recorder PlaylistRecorder, logger *log.Logger) *PlaylistExporter {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &PlaylistExporter{catalog: catalog, recorder: recorder, logger: logger}
}

// Export creates a playlist called name and adds trackIDs in order.
func (e *PlaylistExporter) Export(ctx context.Context, name string, trackIDs []string) (*models.Playlist, error) {
	return e.export(ctx, "", name, trackIDs)
}

// ExportRun exports a recorded run's tracks and links the playlist to it.
func (e *PlaylistExporter) ExportRun(ctx context.Context, run models.Run, name string) (*models.Playlist, error) {
	if name == "" {
		name = "mixtape " + run.CreatedAt.Format(time.DateOnly)
	}
	return e.export(ctx, run.ID, name, run.TrackIDs())
}

func (e *PlaylistExporter) export(ctx context.Context, runID, name string, trackIDs []string) (*models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("%w: no tracks to export", shared.ErrInvalidInput)
	}

	userID, err := e.catalog.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	playlist, err := e.catalog.CreatePlaylist(ctx, userID, name, playlistDescription, false)
	if err != nil {
		return nil, err
	}

	if err := e.catalog.AddTracks(ctx, playlist.ID, trackIDs); err != nil {
		return nil, fmt.Errorf("playlist %s created but tracks were not added: %w", playlist.ID, err)
	}
	e.logger.Info("playlist exported", "id", playlist.ID, "name", name, "tracks", len(trackIDs))

	if e.recorder != nil {
		err := e.recorder.RecordPlaylist(ctx, models.ExportedPlaylist{
			ID:         playlist.ID,
			RunID:      runID,
			Name:       name,
			TrackCount: len(trackIDs),
			CreatedAt:  time.Now().UTC(),
		})
		if err != nil {
			e.logger.Warn("failed to record playlist", "id", playlist.ID, "error", err)
		}
	}
	return playlist, nil
}
