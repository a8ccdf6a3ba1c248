// Package signal reduces per-track audio features to a target profile and filters candidates against it.
package signal

import (
	"slices"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// Aggregate averages each dimension over the vectors that report it, rounded to two decimals.
//
// Dimensions no vector reports are omitted. Values are summed in sorted order so the result does not depend on
// input order. An empty input returns [shared.ErrEmptyInput].
func Aggregate(vectors []models.SignalVector) (models.TargetProfile, error) {
	if len(vectors) == 0 {
		return nil, shared.ErrEmptyInput
	}

	samples := make(map[models.Dimension][]float64)
	for _, v := range vectors {
		for d, value := range v.Values {
			samples[d] = append(samples[d], value)
		}
	}

	profile := make(models.TargetProfile, len(samples))
	for d, values := range samples {
		slices.Sort(values)
		var sum float64
		for _, value := range values {
			sum += value
		}
		profile[d] = shared.Round2(sum / float64(len(values)))
	}
	return profile, nil
}
