package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	tu "github.com/desertthunder/mixtape/internal/testing"
)

type playlistRecorder struct {
	playlists []models.ExportedPlaylist
	err       error
}

func (r *playlistRecorder) RecordPlaylist(_ context.Context, p models.ExportedPlaylist) error {
	r.playlists = append(r.playlists, p)
	return r.err
}

func TestPlaylistExporter_Export(t *testing.T) {
	ctx := context.Background()

	t.Run("creates playlist and adds tracks", func(t *testing.T) {
		catalog := tu.NewFakeCatalog()
		recorder := &playlistRecorder{}
		exporter := NewPlaylistExporter(catalog, recorder, nil)

		playlist, err := exporter.Export(ctx, "  Road Trip  ", []string{"t1", "t2"})
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		if playlist.ID != "playlist-1" {
			t.Errorf("Export() playlist ID = %q, want playlist-1", playlist.ID)
		}
		if catalog.CreatedPlaylist != "Road Trip" {
			t.Errorf("created playlist %q, want trimmed name", catalog.CreatedPlaylist)
		}
		if got := catalog.Added["playlist-1"]; len(got) != 2 || got[0] != "t1" || got[1] != "t2" {
			t.Errorf("added tracks = %v, want [t1 t2]", got)
		}
		if len(recorder.playlists) != 1 || recorder.playlists[0].TrackCount != 2 || recorder.playlists[0].RunID != "" {
			t.Errorf("recorded = %+v", recorder.playlists)
		}
	})

	t.Run("validation", func(t *testing.T) {
		exporter := NewPlaylistExporter(tu.NewFakeCatalog(), nil, nil)

		if _, err := exporter.Export(ctx, " ", []string{"t1"}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("Export() with blank name error = %v, want ErrMissingArgument", err)
		}
		if _, err := exporter.Export(ctx, "Empty", nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("Export() without tracks error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("catalog failure", func(t *testing.T) {
		catalog := tu.NewFakeCatalog()
		catalog.Err = shared.ErrAuthExpired
		recorder := &playlistRecorder{}

		_, err := NewPlaylistExporter(catalog, recorder, nil).Export(ctx, "Mix", []string{"t1"})
		if !errors.Is(err, shared.ErrAuthExpired) {
			t.Errorf("Export() error = %v, want ErrAuthExpired", err)
		}
		if len(recorder.playlists) != 0 {
			t.Errorf("failed export was recorded: %+v", recorder.playlists)
		}
	})

	t.Run("recorder failure is ignored", func(t *testing.T) {
		recorder := &playlistRecorder{err: errors.New("disk full")}

		if _, err := NewPlaylistExporter(tu.NewFakeCatalog(), recorder, nil).Export(ctx, "Mix", []string{"t1"}); err != nil {
			t.Errorf("Export() error = %v, want nil", err)
		}
	})
}

func TestPlaylistExporter_ExportRun(t *testing.T) {
	catalog := tu.NewFakeCatalog()
	recorder := &playlistRecorder{}
	run := models.Run{
		ID:        "run-1",
		Tracks:    []models.Track{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	if _, err := NewPlaylistExporter(catalog, recorder, nil).ExportRun(context.Background(), run, ""); err != nil {
		t.Fatalf("ExportRun() error = %v", err)
	}
	if catalog.CreatedPlaylist != "mixtape 2024-05-01" {
		t.Errorf("default name = %q", catalog.CreatedPlaylist)
	}
	if len(recorder.playlists) != 1 || recorder.playlists[0].RunID != "run-1" || recorder.playlists[0].TrackCount != 3 {
		t.Errorf("recorded = %+v", recorder.playlists)
	}
}
