package syncer

import (
	"math"

	"github.com/verte-zerg/subtutor/internal/model"
)

const (
	weightPerChar   = 0.5
	minWeight       = 1.0
	maxBufferSecs   = 0.3
	bufferShareRate = 0.2
)

// Weight is the relative reading time of a token.
func Weight(tok model.Token) float64 {
	return math.Max(minWeight, float64(len(tok.Text))*weightPerChar)
}

// Allocate picks the token to highlight at logical time t within cue.
//
// Tokens share the cue duration in proportion to their weight. A token becomes
// current slightly before its cumulative boundary is reached (a buffer of at
// most 0.3s). The result never decreases as t increases. Returns -1 when there
// are no tokens or t lies outside [start, end).
func Allocate(cue model.Cue, tokens []model.Token, t float64) int {
	if len(tokens) == 0 {
		return -1
	}
	if t < cue.Start || t >= cue.End {
		return -1
	}
	duration := cue.Duration()
	if duration <= 0 {
		return -1
	}
	progress := clamp((t-cue.Start)/duration, 0, 1)

	weights := make([]float64, len(tokens))
	total := 0.0
	for i, tok := range tokens {
		weights[i] = Weight(tok)
		total += weights[i]
	}

	target := 0
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		share := w / total
		buffer := math.Min(maxBufferSecs, share*duration*bufferShareRate)
		if progress >= cumulative/total-buffer/duration {
			target = i
		} else {
			break
		}
	}
	if target > len(tokens)-1 {
		target = len(tokens) - 1
	}
	return target
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
