// package repositories provides SQLite persistence for synthesis runs and exported playlists.
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrRunNotFound      = errors.New("run not found")
	ErrPlaylistNotFound = errors.New("playlist not found")
)

// DefaultListLimit bounds list queries when the caller gives no limit.
const DefaultListLimit = 20

// encodeList stores a string slice as a JSON array. Nil encodes as [].
func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}

// decodeList reads a JSON array written by [encodeList]. Empty arrays decode to nil.
func decodeList(data string) ([]string, error) {
	var values []string
	if data == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
