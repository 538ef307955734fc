package clock

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dexterlb/mpvipc"
)

const mpvTimeout = 100 * time.Millisecond

// Observer ids for the properties mirrored from mpv.
const (
	observeTimePos = iota + 1
	observePause
	observeEOF
)

// mpvConn is the subset of *mpvipc.Connection the player uses.
type mpvConn interface {
	Call(arguments ...interface{}) (interface{}, error)
	NewEventListener() (chan *mpvipc.Event, chan struct{})
	IsClosed() bool
	Close() error
}

// MPV drives an mpv instance started with --input-ipc-server=<socket>.
// Position and pause state are mirrored from property-change events, so
// reads never wait on the socket.
type MPV struct {
	socket  string
	timeout time.Duration
	open    func(socket string) (mpvConn, error)

	mu     sync.Mutex
	conn   mpvConn
	stop   chan struct{}
	pos    *float64
	paused bool
	eof    bool
}

// NewMPV returns a client for the IPC socket. The connection is opened lazily.
func NewMPV(socket string) *MPV {
	return &MPV{socket: socket, timeout: mpvTimeout, open: openMPV}
}

func openMPV(socket string) (mpvConn, error) {
	conn := mpvipc.NewConnection(socket)
	if err := conn.Open(); err != nil {
		return nil, err
	}
	return conn, nil
}

// CurrentTime implements Player.
func (m *MPV) CurrentTime() (float64, error) {
	if _, err := m.connect(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pos == nil {
		return 0, ErrNotReady
	}
	return *m.pos, nil
}

// Seek implements Player.
func (m *MPV) Seek(seconds float64) error {
	conn, err := m.connect()
	if err != nil {
		return err
	}
	return m.call(conn, "seek", seconds, "absolute")
}

// State implements Player.
func (m *MPV) State() (PlaybackState, error) {
	if _, err := m.connect(); err != nil {
		return StateUnstarted, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.eof:
		return StateEnded, nil
	case m.pos == nil:
		return StateUnstarted, nil
	case m.paused:
		return StatePaused, nil
	default:
		return StatePlaying, nil
	}
}

// TogglePause implements Player.
func (m *MPV) TogglePause() error {
	conn, err := m.connect()
	if err != nil {
		return err
	}
	return m.call(conn, "cycle", "pause")
}

// Close drops the IPC connection.
func (m *MPV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropLocked()
}

// connect returns the live connection, opening one and registering the
// property observers when needed.
func (m *MPV) connect() (mpvConn, error) {
	m.mu.Lock()
	if m.conn != nil && !m.conn.IsClosed() {
		conn := m.conn
		m.mu.Unlock()
		return conn, nil
	}
	_ = m.dropLocked()
	conn, err := m.open(m.socket)
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	events, stop := conn.NewEventListener()
	done := make(chan struct{})
	m.conn = conn
	m.stop = done
	m.mu.Unlock()

	go func() {
		<-done
		close(stop)
	}()
	go m.listen(events, done)

	for id, prop := range map[int]string{
		observeTimePos: "time-pos",
		observePause:   "pause",
		observeEOF:     "eof-reached",
	} {
		if err := m.call(conn, "observe_property", id, prop); err != nil {
			_ = m.Close()
			return nil, err
		}
	}
	return conn, nil
}

func (m *MPV) listen(events <-chan *mpvipc.Event, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.apply(ev, done)
		}
	}
}

func (m *MPV) apply(ev *mpvipc.Event, done <-chan struct{}) {
	if ev == nil || ev.Name != "property-change" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != done {
		return
	}
	switch ev.ID {
	case observeTimePos:
		if v, ok := ev.Data.(float64); ok {
			m.pos = &v
		} else {
			m.pos = nil
		}
	case observePause:
		v, _ := ev.Data.(bool)
		m.paused = v
	case observeEOF:
		v, _ := ev.Data.(bool)
		m.eof = v
	}
}

// call runs one command with a deadline; a stalled mpv surfaces as ErrNotReady.
func (m *MPV) call(conn mpvConn, args ...interface{}) error {
	errc := make(chan error, 1)
	go func() {
		_, err := conn.Call(args...)
		errc <- err
	}()
	select {
	case err := <-errc:
		if err != nil && strings.Contains(err.Error(), "property unavailable") {
			return ErrNotReady
		}
		if err != nil {
			return fmt.Errorf("mpv %v: %w", args[0], err)
		}
		return nil
	case <-time.After(m.timeout):
		return fmt.Errorf("mpv %v timed out: %w", args[0], ErrNotReady)
	}
}

func (m *MPV) dropLocked() error {
	if m.conn == nil {
		return nil
	}
	close(m.stop)
	err := m.conn.Close()
	m.conn = nil
	m.stop = nil
	m.pos = nil
	m.paused = false
	m.eof = false
	return err
}
