package clock

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dexterlb/mpvipc"
)

type fakeMPVConn struct {
	mu       sync.Mutex
	calls    [][]interface{}
	events   chan *mpvipc.Event
	closed   bool
	reply    func(args []interface{}) error
	blocking bool
}

func newFakeMPVConn() *fakeMPVConn {
	return &fakeMPVConn{events: make(chan *mpvipc.Event, 8)}
}

func (f *fakeMPVConn) Call(args ...interface{}) (interface{}, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	reply, blocking := f.reply, f.blocking
	f.mu.Unlock()
	if blocking && args[0] != "observe_property" {
		select {}
	}
	if reply != nil {
		return nil, reply(args)
	}
	return nil, nil
}

func (f *fakeMPVConn) NewEventListener() (chan *mpvipc.Event, chan struct{}) {
	return f.events, make(chan struct{})
}

func (f *fakeMPVConn) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeMPVConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeMPVConn) lastCall() []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func newFakeMPV(conn *fakeMPVConn) *MPV {
	m := NewMPV("unused.sock")
	m.open = func(string) (mpvConn, error) { return conn, nil }
	return m
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within 1s")
}

func TestMPVMirrorsObservedProperties(t *testing.T) {
	conn := newFakeMPVConn()
	m := newFakeMPV(conn)
	t.Cleanup(func() { _ = m.Close() })

	if _, err := m.CurrentTime(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady before the first event, got %v", err)
	}
	conn.mu.Lock()
	observed := len(conn.calls)
	conn.mu.Unlock()
	if observed != 3 {
		t.Fatalf("expected 3 observe_property calls, got %d", observed)
	}

	conn.events <- &mpvipc.Event{Name: "property-change", ID: observeTimePos, Data: 12.5}
	conn.events <- &mpvipc.Event{Name: "property-change", ID: observePause, Data: true}
	waitFor(t, func() bool {
		state, _ := m.State()
		return state == StatePaused
	})
	pos, err := m.CurrentTime()
	if err != nil {
		t.Fatalf("current time: %v", err)
	}
	if pos != 12.5 {
		t.Fatalf("expected 12.5, got %v", pos)
	}

	conn.events <- &mpvipc.Event{Name: "property-change", ID: observeEOF, Data: true}
	waitFor(t, func() bool {
		state, _ := m.State()
		return state == StateEnded
	})

	conn.events <- &mpvipc.Event{Name: "property-change", ID: observeTimePos, Data: nil}
	waitFor(t, func() bool {
		_, err := m.CurrentTime()
		return errors.Is(err, ErrNotReady)
	})
}

func TestMPVCommands(t *testing.T) {
	conn := newFakeMPVConn()
	m := newFakeMPV(conn)
	t.Cleanup(func() { _ = m.Close() })

	if err := m.Seek(3); err != nil {
		t.Fatalf("seek: %v", err)
	}
	call := conn.lastCall()
	if len(call) != 3 || call[0] != "seek" || call[1] != 3.0 || call[2] != "absolute" {
		t.Fatalf("unexpected seek call %v", call)
	}
	if err := m.TogglePause(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	call = conn.lastCall()
	if len(call) != 2 || call[0] != "cycle" || call[1] != "pause" {
		t.Fatalf("unexpected toggle call %v", call)
	}

	conn.mu.Lock()
	conn.reply = func([]interface{}) error { return errors.New("mpv error: property unavailable") }
	conn.mu.Unlock()
	if err := m.Seek(1); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	conn.mu.Lock()
	conn.reply = func([]interface{}) error { return errors.New("mpv error: invalid parameter") }
	conn.mu.Unlock()
	if err := m.Seek(1); err == nil || errors.Is(err, ErrNotReady) {
		t.Fatalf("expected command error, got %v", err)
	}
}

func TestMPVStalledCommandTimesOut(t *testing.T) {
	conn := newFakeMPVConn()
	m := newFakeMPV(conn)
	m.timeout = 20 * time.Millisecond
	t.Cleanup(func() { _ = m.Close() })

	if _, err := m.State(); err != nil {
		t.Fatalf("state: %v", err)
	}
	conn.mu.Lock()
	conn.blocking = true
	conn.mu.Unlock()

	start := time.Now()
	if err := m.TogglePause(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("toggle blocked for %v", elapsed)
	}
}

func TestMPVReconnectsAfterClose(t *testing.T) {
	first := newFakeMPVConn()
	second := newFakeMPVConn()
	conns := []*fakeMPVConn{first, second}
	m := NewMPV("unused.sock")
	m.open = func(string) (mpvConn, error) {
		c := conns[0]
		conns = conns[1:]
		return c, nil
	}
	t.Cleanup(func() { _ = m.Close() })

	if _, err := m.State(); err != nil {
		t.Fatalf("state: %v", err)
	}
	_ = first.Close()
	if err := m.TogglePause(); err != nil {
		t.Fatalf("toggle after reconnect: %v", err)
	}
	if call := second.lastCall(); len(call) == 0 || call[0] != "cycle" {
		t.Fatalf("expected toggle on the new connection, got %v", call)
	}
}

func TestMPVMissingSocket(t *testing.T) {
	m := NewMPV(filepath.Join(t.TempDir(), "absent.sock"))
	if _, err := m.CurrentTime(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}
