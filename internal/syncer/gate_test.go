package syncer

import "testing"

func TestGateSuppressesRepeats(t *testing.T) {
	g := NewGate()
	if !g.ShouldUpdate(2, 1) {
		t.Fatalf("expected first call to emit")
	}
	if g.ShouldUpdate(2, 1) {
		t.Fatalf("expected identical pair to be suppressed")
	}
	if !g.ShouldUpdate(3, 1) {
		t.Fatalf("expected cue change with same token index to emit")
	}
	if !g.ShouldUpdate(3, 2) {
		t.Fatalf("expected token change to emit")
	}
	if last := g.Last(); last.CueIndex != 3 || last.TokenIndex != 2 {
		t.Fatalf("unexpected last state: %+v", last)
	}
}

func TestGateFirstEmitIncludesNone(t *testing.T) {
	g := NewGate()
	if !g.ShouldUpdate(-1, -1) {
		t.Fatalf("expected initial none state to emit once")
	}
	if g.ShouldUpdate(-1, -1) {
		t.Fatalf("expected repeated none state to be suppressed")
	}
	g.Reset()
	if !g.CueChanged(-1) || !g.ShouldUpdate(-1, -1) {
		t.Fatalf("expected reset gate to emit again")
	}
}
