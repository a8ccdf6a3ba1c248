package signal

import (
	"github.com/desertthunder/mixtape/internal/models"
)

// DefaultTolerance is the relative half-width of the matching band.
const DefaultTolerance = 0.1

// Bounds returns the inclusive band [(1-t)v, (1+t)v], ordered low to high so negative targets work.
func Bounds(v, tolerance float64) (lo, hi float64) {
	lo, hi = (1-tolerance)*v, (1+tolerance)*v
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// Match returns the IDs of candidates whose every target dimension falls inside its band, in input order.
//
// A candidate missing any target dimension does not match. A zero target only matches zero.
func Match(target models.TargetProfile, candidates []models.SignalVector, tolerance float64) []string {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if matches(target, c, tolerance) {
			ids = append(ids, c.TrackID)
		}
	}
	return ids
}

func matches(target models.TargetProfile, c models.SignalVector, tolerance float64) bool {
	for d, v := range target {
		got, ok := c.Values[d]
		if !ok {
			return false
		}
		lo, hi := Bounds(v, tolerance)
		if got < lo || got > hi {
			return false
		}
	}
	return true
}
