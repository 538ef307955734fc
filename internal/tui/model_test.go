package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/subtutor/internal/client"
	"github.com/verte-zerg/subtutor/internal/clock"
	"github.com/verte-zerg/subtutor/internal/model"
	"github.com/verte-zerg/subtutor/internal/store"
	"github.com/verte-zerg/subtutor/internal/syncer"
	"github.com/verte-zerg/subtutor/internal/wordlist"
)

type fakePlayer struct {
	t      float64
	paused bool
}

func (p *fakePlayer) CurrentTime() (float64, error) { return p.t, nil }

func (p *fakePlayer) Seek(s float64) error { p.t = s; return nil }

func (p *fakePlayer) State() (clock.PlaybackState, error) {
	if p.paused {
		return clock.StatePaused, nil
	}
	return clock.StatePlaying, nil
}

func (p *fakePlayer) TogglePause() error { p.paused = !p.paused; return nil }

type fakeBackend struct {
	info          client.WordInfo
	progressErr   error
	progressCalls int
}

func (b *fakeBackend) FetchSubtitles(context.Context, string) (client.SubtitleResponse, error) {
	return client.SubtitleResponse{}, nil
}

func (b *fakeBackend) TranslationProgress(context.Context, string, int) (client.TranslationProgress, error) {
	b.progressCalls++
	return client.TranslationProgress{}, b.progressErr
}

func (b *fakeBackend) LookupWord(context.Context, string) (client.WordInfo, error) {
	return b.info, nil
}

func (b *fakeBackend) AddWordToBank(context.Context, string, string, string, *client.WordInfo) (string, error) {
	return "saved", nil
}

var testCues = []model.Cue{
	{Start: 0, End: 2, Source: "desert wind blows"},
	{Start: 2, End: 4, Source: "quiet stars"},
}

func newTestModel(t *testing.T, p *fakePlayer, backend Backend) (*Model, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "subtutor.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	engine := syncer.NewEngine(clock.NewAdapter(p, 0), wordlist.DefaultFilter().Keep, nil)
	cfg := model.Config{Highlight: true, AutoScroll: true, ShowSource: true, ShowTarget: true, Video: "vid"}
	m := NewModel(cfg, engine, backend, st, nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m.Update(cuesLoadedMsg{cues: testCues, videoID: "vid"})
	return m, st
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTickUpdatesStateAndFooter(t *testing.T) {
	p := &fakePlayer{t: 2.5}
	m, _ := newTestModel(t, p, nil)

	_, cmd := m.Update(tickMsg{})
	if cmd == nil {
		t.Fatalf("expected next tick to be scheduled")
	}
	if got := m.engine.State().CueIndex; got != 1 {
		t.Fatalf("expected cue 1, got %d", got)
	}
	if !strings.Contains(m.renderFooter(), "Cue 2/2") {
		t.Fatalf("footer missing cue position: %s", m.renderFooter())
	}
	if m.View() == "" {
		t.Fatalf("expected view output")
	}
}

func TestStaleTranslationIsDropped(t *testing.T) {
	p := &fakePlayer{}
	m, _ := newTestModel(t, p, &fakeBackend{})
	stale := m.engine.Store().Generation()
	m.Update(cuesLoadedMsg{cues: testCues})

	_, cmd := m.Update(translationMsg{
		gen: stale,
		progress: client.TranslationProgress{NewItems: []client.TranslationItem{
			{Start: 0, English: "desert wind blows", Chinese: "沙漠的风"},
		}},
	})
	if cmd != nil {
		t.Fatalf("expected stale poll to stop")
	}
	if cue, _ := m.engine.Store().At(0); cue.Target != "" {
		t.Fatalf("stale translation applied: %+v", cue)
	}
}

func TestTranslationAppliesAndCompletes(t *testing.T) {
	p := &fakePlayer{}
	m, _ := newTestModel(t, p, &fakeBackend{})
	m.translating = true

	_, cmd := m.Update(translationMsg{
		gen: m.engine.Store().Generation(),
		progress: client.TranslationProgress{
			Completed: true,
			Current:   2,
			Total:     2,
			NewItems: []client.TranslationItem{
				{Start: 2.05, English: "quiet stars", Chinese: "安静的星星"},
			},
		},
	})
	if cmd != nil {
		t.Fatalf("expected polling to end on completion")
	}
	if cue, _ := m.engine.Store().At(1); cue.Target != "安静的星星" {
		t.Fatalf("translation not applied: %+v", cue)
	}
	if m.translating {
		t.Fatalf("expected translating to stop")
	}
}

func TestTranslationContinuesPolling(t *testing.T) {
	p := &fakePlayer{}
	m, _ := newTestModel(t, p, &fakeBackend{})

	_, cmd := m.Update(translationMsg{
		gen:      m.engine.Store().Generation(),
		progress: client.TranslationProgress{Current: 1, Total: 4, LastIndex: 1},
	})
	if cmd == nil {
		t.Fatalf("expected another poll")
	}
	if m.translationPct != 25 {
		t.Fatalf("expected 25%%, got %d", m.translationPct)
	}
}

func TestTranslationFailureStopsPolling(t *testing.T) {
	p := &fakePlayer{}
	backend := &fakeBackend{progressErr: errors.New("boom")}
	m, _ := newTestModel(t, p, backend)
	m.translating = true

	msg := pollTranslationCmd(backend, m.engine.Store().Generation(), "key", 0, time.Now())()
	_, cmd := m.Update(msg)
	if cmd != nil {
		t.Fatalf("expected no retry after a failed poll")
	}
	if backend.progressCalls != 1 {
		t.Fatalf("expected one progress request, got %d", backend.progressCalls)
	}
	if m.translating {
		t.Fatalf("expected translating to stop")
	}
	if !strings.Contains(m.status, "Translation stopped: boom") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestTranslationGivesUpAfterLimit(t *testing.T) {
	p := &fakePlayer{}
	backend := &fakeBackend{}
	m, _ := newTestModel(t, p, backend)
	m.translating = true

	started := time.Now().Add(-pollLimit - time.Second)
	msg := pollTranslationCmd(backend, m.engine.Store().Generation(), "key", 3, started)()
	if tm, ok := msg.(translationMsg); !ok || !errors.Is(tm.err, errPollTimeout) {
		t.Fatalf("expected poll timeout, got %+v", msg)
	}
	if backend.progressCalls != 0 {
		t.Fatalf("expected no request past the limit, got %d", backend.progressCalls)
	}
	_, cmd := m.Update(msg)
	if cmd != nil {
		t.Fatalf("expected polling to end")
	}
	if m.translating || !strings.Contains(m.status, errPollTimeout.Error()) {
		t.Fatalf("unexpected state translating=%v status=%q", m.translating, m.status)
	}
}

func TestOffsetKeysPersist(t *testing.T) {
	p := &fakePlayer{}
	m, st := newTestModel(t, p, nil)
	ctx := context.Background()

	m.Update(key("+"))
	m.Update(key("+"))
	if got := m.engine.Clock().Offset(); got != 1.0 {
		t.Fatalf("expected offset 1.0, got %v", got)
	}
	if v, ok, err := st.GetSetting(ctx, store.SettingTimeOffset); err != nil || !ok || v != "1" {
		t.Fatalf("unexpected stored offset %q ok=%v err=%v", v, ok, err)
	}
	m.Update(key("-"))
	m.Update(key("0"))
	if got := m.engine.Clock().Offset(); got != 0 {
		t.Fatalf("expected offset reset, got %v", got)
	}
}

func TestHighlightTogglePersists(t *testing.T) {
	p := &fakePlayer{t: 0.1}
	m, st := newTestModel(t, p, nil)
	m.Update(tickMsg{})
	if m.engine.State().TokenIndex != 0 {
		t.Fatalf("expected first token highlighted, got %+v", m.engine.State())
	}

	m.Update(key("h"))
	if m.engine.HighlightEnabled() || m.engine.State().TokenIndex != -1 {
		t.Fatalf("expected highlight cleared, got %+v", m.engine.State())
	}
	if v, _, _ := st.GetSetting(context.Background(), store.SettingHighlight); v != "false" {
		t.Fatalf("expected stored highlight false, got %q", v)
	}
}

func TestSpaceTogglesPlayer(t *testing.T) {
	p := &fakePlayer{}
	m, _ := newTestModel(t, p, nil)
	m.Update(key(" "))
	if !p.paused {
		t.Fatalf("expected player paused")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if p.t != seekStep {
		t.Fatalf("expected seek to %v, got %v", seekStep, p.t)
	}
}

func TestLookupRecordsHistory(t *testing.T) {
	p := &fakePlayer{t: 0.1}
	backend := &fakeBackend{info: client.WordInfo{Word: "desert", WordTranslation: "沙漠"}}
	m, st := newTestModel(t, p, backend)
	m.Update(tickMsg{})

	_, cmd := m.Update(key("w"))
	if cmd == nil || !m.lookupPending || m.lookupWord != "desert" {
		t.Fatalf("expected pending lookup for desert, word=%q", m.lookupWord)
	}
	m.Update(lookupMsg{word: "other", info: client.WordInfo{Word: "other"}})
	if m.lookupInfo != nil {
		t.Fatalf("stale lookup applied")
	}
	m.Update(cmd())
	if m.lookupInfo == nil || m.lookupInfo.WordTranslation != "沙漠" {
		t.Fatalf("lookup not applied: %+v", m.lookupInfo)
	}

	words, err := st.TopLookups(context.Background(), model.StatsConfig{})
	if err != nil {
		t.Fatalf("top lookups: %v", err)
	}
	if len(words) != 1 || words[0].Word != "desert" {
		t.Fatalf("unexpected lookups: %+v", words)
	}
}

func TestQuitSavesSession(t *testing.T) {
	p := &fakePlayer{t: 0.5}
	m, st := newTestModel(t, p, nil)
	m.Update(tickMsg{})

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	sessions, err := st.ListWatchSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].CuesSeen != 1 || sessions[0].VideoID != "vid" {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
}

func TestRenderFooterFormats(t *testing.T) {
	engine := syncer.NewEngine(clock.NewAdapter(nil, 0.5), nil, nil)
	m := &Model{
		engine:         engine,
		autoScroll:     true,
		translating:    true,
		translationPct: 40,
		hasPosition:    true,
		position:       75.25,
	}
	out := m.renderFooter()
	if !containsAll(out, []string{"01:15.2", "Offset +0.5s", "Highlight on", "Scroll on", "Translating 40%"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
