// Package repositories implements SQLite persistence for run history.
//
// Key Implementations:
//   - [RunRepository] : completed synthesis runs with their tracks in result order, and the playlists exported
//     from them
//
// Request lists (moods, activities, artists, genres) and track artist lists are stored as JSON arrays in TEXT
// columns. A run and its tracks are written in one transaction; deleting a run cascades to its tracks and
// detaches its exported playlists.
//
// The schema lives in shared/sql and is applied by [shared.RunMigrations].
package repositories
