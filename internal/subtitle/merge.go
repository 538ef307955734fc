package subtitle

import (
	"regexp"
	"strings"

	"github.com/verte-zerg/subtutor/internal/model"
)

// MaxWordsPerSentence bounds merged cues that never reach a terminator.
const MaxWordsPerSentence = 15

var sentenceEndRe = regexp.MustCompile(`[.!?]["']?\s*`)

type pending struct {
	parts []string
	start float64
	end   float64
	open  bool
}

func (p *pending) text() string {
	return strings.TrimSpace(strings.Join(p.parts, " "))
}

// MergeSentences joins caption fragments into sentence cues. A sentence ends at
// the last terminator in the accumulated text; text after it starts the next
// sentence. Without a terminator a sentence is cut before it exceeds
// MaxWordsPerSentence words, ending at the start of the fragment that overflowed.
func MergeSentences(raw []model.Cue) []model.Cue {
	var merged []model.Cue
	var cur pending
	for _, sub := range raw {
		text := strings.TrimSpace(sub.Source)
		if text == "" {
			continue
		}
		if !cur.open {
			cur = pending{start: sub.Start, open: true}
		}
		cur.parts = append(cur.parts, text)
		cur.end = sub.End

		joined := cur.text()
		if locs := sentenceEndRe.FindAllStringIndex(joined, -1); len(locs) > 0 {
			cut := locs[len(locs)-1][1]
			sentence := strings.TrimSpace(joined[:cut])
			rest := strings.TrimSpace(joined[cut:])
			if sentence != "" {
				merged = append(merged, model.Cue{Start: cur.start, End: cur.end, Source: sentence})
			}
			if rest != "" {
				cur = pending{parts: []string{rest}, start: sub.Start, end: sub.End, open: true}
			} else {
				cur = pending{}
			}
			continue
		}

		if CountWords(joined) > MaxWordsPerSentence {
			last := cur.parts[len(cur.parts)-1]
			cur.parts = cur.parts[:len(cur.parts)-1]
			if sentence := cur.text(); sentence != "" {
				merged = append(merged, model.Cue{Start: cur.start, End: sub.Start, Source: sentence})
			}
			cur = pending{parts: []string{last}, start: sub.Start, end: sub.End, open: true}
		}
	}
	if cur.open {
		if sentence := cur.text(); sentence != "" {
			merged = append(merged, model.Cue{Start: cur.start, End: cur.end, Source: sentence})
		}
	}
	return merged
}

// PairTargets fills Target on each source cue from the target cue with the
// largest time overlap. Source cues with no overlapping target keep their text.
func PairTargets(source, target []model.Cue) []model.Cue {
	out := make([]model.Cue, len(source))
	copy(out, source)
	for i := range out {
		best := -1
		bestOverlap := 0.0
		for j, tc := range target {
			overlap := minFloat(out[i].End, tc.End) - maxFloat(out[i].Start, tc.Start)
			if overlap > bestOverlap {
				best = j
				bestOverlap = overlap
			}
		}
		if best >= 0 {
			out[i].Target = target[best].Source
		}
	}
	return out
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
