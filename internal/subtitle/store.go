// Package subtitle holds the cue store, subtitle parsing and token extraction.
package subtitle

import (
	"math"

	"github.com/verte-zerg/subtutor/internal/model"
)

// MatchTolerance is the start-time drift accepted when matching incremental updates.
const MatchTolerance = 0.1

// Store is an ordered cue sequence, replaced wholesale on every load.
// It is not safe for concurrent use; all access happens on the UI loop.
type Store struct {
	cues       []model.Cue
	generation uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps the cue sequence and starts a new load generation.
func (s *Store) Replace(cues []model.Cue) uint64 {
	next := make([]model.Cue, len(cues))
	copy(next, cues)
	s.cues = next
	s.generation++
	return s.generation
}

// Clear empties the store ahead of a new load.
func (s *Store) Clear() uint64 {
	return s.Replace(nil)
}

// Generation identifies the current load.
func (s *Store) Generation() uint64 {
	return s.generation
}

// ApplyIncrementalUpdate sets Target on the first cue matching start (within
// MatchTolerance) and source text. A miss is expected while translations
// stream in and reports false.
func (s *Store) ApplyIncrementalUpdate(partial model.PartialCue) bool {
	for i := range s.cues {
		if math.Abs(s.cues[i].Start-partial.Start) < MatchTolerance && s.cues[i].Source == partial.Source {
			s.cues[i].Target = partial.Target
			return true
		}
	}
	return false
}

// Len returns the number of cues.
func (s *Store) Len() int {
	return len(s.cues)
}

// At returns the cue at i.
func (s *Store) At(i int) (model.Cue, bool) {
	if i < 0 || i >= len(s.cues) {
		return model.Cue{}, false
	}
	return s.cues[i], true
}

// Cues returns a copy of the sequence.
func (s *Store) Cues() []model.Cue {
	out := make([]model.Cue, len(s.cues))
	copy(out, s.cues)
	return out
}

// View exposes the backing slice for read-only scans on the hot path.
func (s *Store) View() []model.Cue {
	return s.cues
}

// Last returns the final cue.
func (s *Store) Last() (model.Cue, bool) {
	return s.At(len(s.cues) - 1)
}
