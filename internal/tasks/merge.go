package tasks

import (
	"github.com/desertthunder/mixtape/internal/models"
)

// Merge concatenates primary and secondary and removes duplicate IDs.
//
// Each ID appears once, at the position of its first occurrence, holding the record of its last occurrence, so a
// secondary record replaces a primary one with the same ID.
func Merge(primary, secondary []models.Track) []models.Track {
	merged := make([]models.Track, 0, len(primary)+len(secondary))
	index := make(map[string]int, len(primary)+len(secondary))

	for _, list := range [][]models.Track{primary, secondary} {
		for _, t := range list {
			if i, ok := index[t.ID]; ok {
				merged[i] = t
				continue
			}
			index[t.ID] = len(merged)
			merged = append(merged, t)
		}
	}
	return merged
}
