package syncer

import (
	"fmt"
	"log/slog"

	"github.com/verte-zerg/subtutor/internal/clock"
	"github.com/verte-zerg/subtutor/internal/model"
	"github.com/verte-zerg/subtutor/internal/subtitle"
)

// TickInterval is the period of the sync pipeline in milliseconds.
const TickInterval = 100

// Frame is the outcome of one tick.
type Frame struct {
	State       model.SyncState
	Position    float64
	HasPosition bool
	// Changed is true when State differs from the last emitted state.
	Changed bool
	// CueChanged is true when the active cue differs from the last emitted cue.
	CueChanged bool
}

// Engine is one playback session: cue store, clock, diff gate and the
// current sync state. It is driven from a single goroutine.
type Engine struct {
	store     *subtitle.Store
	clock     *clock.Adapter
	gate      *Gate
	keep      subtitle.KeepFunc
	logger    *slog.Logger
	highlight bool
	state     model.SyncState

	tokenCue int
	tokenGen uint64
	tokens   []model.Token
}

// NewEngine builds a session over clk. keep filters clickable tokens.
func NewEngine(clk *clock.Adapter, keep subtitle.KeepFunc, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     subtitle.NewStore(),
		clock:     clk,
		gate:      NewGate(),
		keep:      keep,
		logger:    logger,
		highlight: true,
		state:     model.NoSync,
		tokenCue:  -1,
	}
}

// Store returns the session's cue store.
func (e *Engine) Store() *subtitle.Store {
	return e.store
}

// Clock returns the session's clock adapter.
func (e *Engine) Clock() *clock.Adapter {
	return e.clock
}

// State returns the current sync state.
func (e *Engine) State() model.SyncState {
	return e.state
}

// HighlightEnabled reports whether word highlighting is on.
func (e *Engine) HighlightEnabled() bool {
	return e.highlight
}

// Tick runs one read-locate-allocate-gate cycle. Failures inside the cycle
// are logged and the tick is skipped without changing state.
func (e *Engine) Tick() (frame Frame) {
	frame = Frame{State: e.state}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("sync tick skipped", "panic", fmt.Sprint(r))
			frame = Frame{State: e.state}
		}
	}()

	if e.store.Len() == 0 {
		return frame
	}
	pos, ok := e.clock.CurrentPosition()
	if !ok {
		return frame
	}
	frame.Position = pos
	frame.HasPosition = true

	cueIdx := Locate(e.store.View(), pos)
	tokenIdx := -1
	if cueIdx >= 0 && e.highlight {
		cue, _ := e.store.At(cueIdx)
		tokenIdx = Allocate(cue, e.Tokens(cueIdx), pos)
	}

	frame.CueChanged = e.gate.CueChanged(cueIdx)
	if !e.gate.ShouldUpdate(cueIdx, tokenIdx) {
		return frame
	}
	e.state = model.SyncState{CueIndex: cueIdx, TokenIndex: tokenIdx}
	frame.State = e.state
	frame.Changed = true
	return frame
}

// Tokens returns the clickable tokens of cue i, cached per load.
func (e *Engine) Tokens(i int) []model.Token {
	gen := e.store.Generation()
	if i == e.tokenCue && gen == e.tokenGen {
		return e.tokens
	}
	cue, ok := e.store.At(i)
	if !ok {
		return nil
	}
	e.tokens = subtitle.ExtractTokens(cue.Source, e.keep)
	e.tokenCue = i
	e.tokenGen = gen
	return e.tokens
}

// ActiveToken returns the highlighted token, if any.
func (e *Engine) ActiveToken() (model.Token, bool) {
	if e.state.CueIndex < 0 || e.state.TokenIndex < 0 {
		return model.Token{}, false
	}
	tokens := e.Tokens(e.state.CueIndex)
	if e.state.TokenIndex >= len(tokens) {
		return model.Token{}, false
	}
	return tokens[e.state.TokenIndex], true
}

// SetHighlightEnabled turns word highlighting on or off. Turning it off clears
// the highlight immediately.
func (e *Engine) SetHighlightEnabled(on bool) {
	e.highlight = on
	if !on && e.state.TokenIndex != -1 {
		e.state.TokenIndex = -1
		e.gate.ShouldUpdate(e.state.CueIndex, -1)
	}
}

// AdjustOffset shifts the clock offset by delta and returns the new offset.
func (e *Engine) AdjustOffset(delta float64) float64 {
	return e.clock.AdjustOffset(delta)
}

// ResetOffset clears the clock offset.
func (e *Engine) ResetOffset() {
	e.clock.ResetOffset()
}

// IngestCues replaces all cues and resets the sync state. It returns the new
// load generation, which async producers must present with later updates.
func (e *Engine) IngestCues(cues []model.Cue) uint64 {
	gen := e.store.Replace(cues)
	e.gate.Reset()
	e.state = model.NoSync
	e.tokenCue = -1
	e.tokens = nil
	return gen
}

// IngestIncrementalTranslation applies a streamed translation to the current cues.
func (e *Engine) IngestIncrementalTranslation(item model.PartialCue) bool {
	return e.store.ApplyIncrementalUpdate(item)
}

// IngestTranslationFor applies item only if gen is still the current load.
// Updates from a superseded load are dropped.
func (e *Engine) IngestTranslationFor(gen uint64, item model.PartialCue) bool {
	if gen != e.store.Generation() {
		return false
	}
	return e.store.ApplyIncrementalUpdate(item)
}
