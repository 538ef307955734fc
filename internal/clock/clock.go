// Package clock turns an external player's reported time into logical playback time.
package clock

import (
	"errors"
	"fmt"
)

// OffsetStep is the operator adjustment step in seconds.
const OffsetStep = 0.5

// ErrNotReady is returned by players that cannot report a position yet.
var ErrNotReady = errors.New("player not ready")

// PlaybackState mirrors the player's coarse state.
type PlaybackState int

const (
	StateUnstarted PlaybackState = iota
	StatePlaying
	StatePaused
	StateEnded
)

func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unstarted"
	}
}

// Player is the external video player.
type Player interface {
	CurrentTime() (float64, error)
	Seek(seconds float64) error
	State() (PlaybackState, error)
	TogglePause() error
}

// Adapter combines player time with an operator offset.
type Adapter struct {
	player Player
	offset float64
}

// NewAdapter wraps player with the given initial offset.
func NewAdapter(player Player, offset float64) *Adapter {
	return &Adapter{player: player, offset: offset}
}

// Player returns the wrapped player.
func (a *Adapter) Player() Player {
	return a.player
}

// SetPlayer swaps the wrapped player; the offset is kept.
func (a *Adapter) SetPlayer(p Player) {
	a.player = p
}

// CurrentPosition returns player time plus offset. It reports false when the
// player is missing, not ready, errors or panics; callers skip the tick.
func (a *Adapter) CurrentPosition() (pos float64, ok bool) {
	if a.player == nil {
		return 0, false
	}
	defer func() {
		if r := recover(); r != nil {
			pos, ok = 0, false
		}
	}()
	t, err := a.player.CurrentTime()
	if err != nil {
		return 0, false
	}
	return t + a.offset, true
}

// Offset returns the current offset in seconds.
func (a *Adapter) Offset() float64 {
	return a.offset
}

// SetOffset replaces the offset.
func (a *Adapter) SetOffset(v float64) {
	a.offset = v
}

// AdjustOffset adds delta to the offset and returns the new value.
func (a *Adapter) AdjustOffset(delta float64) float64 {
	a.offset += delta
	return a.offset
}

// ResetOffset sets the offset back to zero.
func (a *Adapter) ResetOffset() {
	a.offset = 0
}

// SeekRelative moves the player by delta seconds of player time.
func (a *Adapter) SeekRelative(delta float64) error {
	if a.player == nil {
		return ErrNotReady
	}
	t, err := a.player.CurrentTime()
	if err != nil {
		return fmt.Errorf("failed to read position: %w", err)
	}
	target := t + delta
	if target < 0 {
		target = 0
	}
	return a.player.Seek(target)
}

// FormatOffset renders an offset like "+0.5s" or "-1.0s".
func FormatOffset(v float64) string {
	sign := ""
	if v >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.1fs", sign, v)
}
