package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/subtutor/internal/model"
	"github.com/verte-zerg/subtutor/internal/store"
)

func TestFilterFormApply(t *testing.T) {
	f := newFilterForm()
	f.load(model.StatsConfig{Top: 20})
	if got := f.fields[fieldTop].Value(); got != "20" {
		t.Fatalf("expected top loaded, got %q", got)
	}
	for i, v := range []string{"vid", "2026-02-01", "5", "10"} {
		f.fields[i].SetValue(v)
	}
	result, cfg, _ := f.update(tea.KeyMsg{Type: tea.KeyEnter})
	if result != formApplied {
		t.Fatalf("expected applied, got %v", result)
	}
	if cfg.Video != "vid" || cfg.Last != 5 || cfg.Top != 10 || cfg.Since == nil {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	f.fields[fieldLast].SetValue("-1")
	if result, _, _ := f.update(tea.KeyMsg{Type: tea.KeyEnter}); result != formEditing || !strings.HasPrefix(f.err, "last:") {
		t.Fatalf("expected last error, got result=%v err=%q", result, f.err)
	}
	f.fields[fieldLast].SetValue("")
	f.fields[fieldSince].SetValue("yesterday")
	if _, err := f.config(); err == nil {
		t.Fatalf("expected since error")
	}
	if result, _, _ := f.update(tea.KeyMsg{Type: tea.KeyEsc}); result != formCancelled {
		t.Fatalf("expected cancel, got %v", result)
	}
}

func TestFilterFormFocusWraps(t *testing.T) {
	f := newFilterForm()
	f.load(model.StatsConfig{})
	f.update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if f.focus != fieldTop || !f.fields[fieldTop].Focused() {
		t.Fatalf("expected focus on last field, got %d", f.focus)
	}
	f.update(tea.KeyMsg{Type: tea.KeyTab})
	if f.focus != fieldVideo {
		t.Fatalf("expected focus to wrap to first field, got %d", f.focus)
	}
}

func TestFrame(t *testing.T) {
	out := frame("ab\ncdef\ng\nh", 3, 2)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out)
	}
	for _, line := range lines {
		if lipgloss.Width(line) != 3 {
			t.Fatalf("expected width 3, got %q", line)
		}
	}
	if !strings.HasPrefix(lines[0], "ab") || !strings.HasPrefix(lines[1], "cde") {
		t.Fatalf("unexpected frame %q", out)
	}
}

func TestFilterSummary(t *testing.T) {
	if got := filterSummary(model.StatsConfig{}, 40); !strings.Contains(got, "all history") {
		t.Fatalf("unexpected summary %q", got)
	}
	got := filterSummary(model.StatsConfig{Video: "abc", Last: 3}, 80)
	if !strings.Contains(got, "video abc · last 3") {
		t.Fatalf("unexpected summary %q", got)
	}
	if lipgloss.Width(filterSummary(model.StatsConfig{Video: "a-very-long-video-id"}, 8)) > 8 {
		t.Fatalf("summary exceeds width")
	}
}

func TestModelRendersHistory(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "subtutor.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	ctx := context.Background()
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.Local)
	if _, err := st.InsertWatchSession(ctx, model.WatchSession{
		VideoID: "vid", StartedAt: start, EndedAt: start.Add(10 * time.Minute),
		CuesSeen: 30, Lookups: 2, DurationMs: 600000,
	}); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if err := st.InsertLookup(ctx, model.Lookup{Word: "desert", VideoID: "vid", LookedUpAt: start}); err != nil {
		t.Fatalf("insert lookup: %v", err)
	}

	m := NewModel(st, model.StatsConfig{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if out := m.View(); !strings.Contains(out, "Sessions") {
		t.Fatalf("expected overview cards, got:\n%s", out)
	}
	if rows := m.words.Rows(); len(rows) != 1 || rows[0][0] != "desert" {
		t.Fatalf("unexpected word rows: %+v", rows)
	}
	if rows := m.sessions.Rows(); len(rows) != 1 || rows[0][1] != "vid" {
		t.Fatalf("unexpected session rows: %+v", rows)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabWords {
		t.Fatalf("expected words tab, got %d", m.activeTab)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabSessions {
		t.Fatalf("expected wrap to sessions tab, got %d", m.activeTab)
	}
}

func TestModelFilterApplies(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "subtutor.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	ctx := context.Background()
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.Local)
	for _, video := range []string{"abc", "xyz"} {
		if _, err := st.InsertWatchSession(ctx, model.WatchSession{
			VideoID: video, StartedAt: start, EndedAt: start.Add(time.Minute), CuesSeen: 1,
		}); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}

	m := NewModel(st, model.StatsConfig{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.filtering {
		t.Fatalf("expected filter form")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("xyz")})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filtering || m.cfg.Video != "xyz" {
		t.Fatalf("expected filter applied, filtering=%v cfg=%+v", m.filtering, m.cfg)
	}
	if rows := m.sessions.Rows(); len(rows) != 1 || rows[0][1] != "xyz" {
		t.Fatalf("unexpected session rows: %+v", rows)
	}
	if out := m.View(); !strings.Contains(out, "video xyz") {
		t.Fatalf("expected filter summary in view:\n%s", out)
	}
}
