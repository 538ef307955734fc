// Package syncer maps playback time to the active cue and highlighted word.
package syncer

import (
	"math"

	"github.com/verte-zerg/subtutor/internal/model"
)

// NearMissWindow is how close t must be to a cue boundary to select it when no
// cue contains t.
const NearMissWindow = 0.5

// Locate returns the index of the active cue at logical time t, or -1.
//
// Resolution order: the first cue with start <= t < end; otherwise the cue with
// the boundary nearest to t if closer than NearMissWindow (lowest index on
// ties); otherwise the last cue once t has reached its start. Unsorted or
// overlapping input is not rejected.
func Locate(cues []model.Cue, t float64) int {
	if len(cues) == 0 {
		return -1
	}
	for i, c := range cues {
		if c.Start <= t && t < c.End {
			return i
		}
	}

	best := -1
	bestDist := math.Inf(1)
	for i, c := range cues {
		d := math.Min(math.Abs(t-c.Start), math.Abs(t-c.End))
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best >= 0 && bestDist < NearMissWindow {
		return best
	}

	if t >= cues[len(cues)-1].Start {
		return len(cues) - 1
	}
	return -1
}
