package clock

import (
	"sync"
	"time"
)

// Stopwatch is a wall-clock player for studying subtitles without a video.
type Stopwatch struct {
	mu       sync.Mutex
	now      func() time.Time
	base     float64
	since    time.Time
	running  bool
	started  bool
	duration float64
}

// NewStopwatch returns a paused stopwatch at zero. A duration > 0 marks the end.
func NewStopwatch(duration float64) *Stopwatch {
	return &Stopwatch{now: time.Now, duration: duration}
}

func (s *Stopwatch) position() float64 {
	pos := s.base
	if s.running {
		pos += s.now().Sub(s.since).Seconds()
	}
	if s.duration > 0 && pos > s.duration {
		pos = s.duration
	}
	return pos
}

// CurrentTime implements Player.
func (s *Stopwatch) CurrentTime() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position(), nil
}

// Seek implements Player.
func (s *Stopwatch) Seek(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	s.base = seconds
	s.since = s.now()
	return nil
}

// State implements Player.
func (s *Stopwatch) State() (PlaybackState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.started:
		return StateUnstarted, nil
	case s.duration > 0 && s.position() >= s.duration:
		return StateEnded, nil
	case s.running:
		return StatePlaying, nil
	default:
		return StatePaused, nil
	}
}

// TogglePause implements Player.
func (s *Stopwatch) TogglePause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.base = s.position()
		s.running = false
		return nil
	}
	s.since = s.now()
	s.running = true
	s.started = true
	return nil
}
