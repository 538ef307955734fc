package syncer

import "github.com/verte-zerg/subtutor/internal/model"

// Gate suppresses redundant renders by remembering the last emitted state.
type Gate struct {
	last    model.SyncState
	emitted bool
}

// NewGate returns a gate that emits on the first call.
func NewGate() *Gate {
	return &Gate{last: model.NoSync}
}

// ShouldUpdate reports whether (cue, token) differs from the last emitted pair
// and, if so, records it. A cue change always emits, even when the token index
// is numerically unchanged.
func (g *Gate) ShouldUpdate(cue, token int) bool {
	if g.emitted && cue == g.last.CueIndex && token == g.last.TokenIndex {
		return false
	}
	g.last = model.SyncState{CueIndex: cue, TokenIndex: token}
	g.emitted = true
	return true
}

// CueChanged reports whether cue differs from the last emitted cue.
func (g *Gate) CueChanged(cue int) bool {
	return !g.emitted || cue != g.last.CueIndex
}

// Last returns the last emitted state.
func (g *Gate) Last() model.SyncState {
	return g.last
}

// Reset forgets the last emitted state so the next call always emits.
func (g *Gate) Reset() {
	g.last = model.NoSync
	g.emitted = false
}
