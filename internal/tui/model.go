// Package tui provides the Bubble Tea subtitle watcher.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/subtutor/internal/client"
	"github.com/verte-zerg/subtutor/internal/clock"
	"github.com/verte-zerg/subtutor/internal/model"
	"github.com/verte-zerg/subtutor/internal/store"
	"github.com/verte-zerg/subtutor/internal/syncer"
)

const seekStep = 5.0

// Model implements the Bubble Tea watcher. All engine and store access
// happens in Update.
type Model struct {
	cfg     model.Config
	engine  *syncer.Engine
	backend Backend
	history *store.Store
	logger  *slog.Logger
	now     func() time.Time

	width    int
	height   int
	viewport viewport.Model
	search   textinput.Model
	searchOn bool

	blocks      []string
	blocksValid bool
	blockStarts []int
	shownCue    int

	autoScroll bool
	showSource bool
	showTarget bool

	position    float64
	hasPosition bool

	videoID        string
	translating    bool
	translationPct int
	status         string
	statusErr      bool

	lookupWord    string
	lookupInfo    *client.WordInfo
	lookupErr     string
	lookupPending bool

	startedAt time.Time
	seen      map[int]struct{}
	lookups   int
	saved     bool
}

// NewModel constructs a watcher. backend and history may be nil.
func NewModel(cfg model.Config, engine *syncer.Engine, backend Backend, history *store.Store, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	search := textinput.New()
	search.Prompt = "Look up: "
	search.CharLimit = 64
	engine.SetHighlightEnabled(cfg.Highlight)
	m := &Model{
		cfg:        cfg,
		engine:     engine,
		backend:    backend,
		history:    history,
		logger:     logger,
		now:        time.Now,
		viewport:   viewport.New(0, 0),
		search:     search,
		shownCue:   -1,
		autoScroll: cfg.AutoScroll,
		showSource: cfg.ShowSource,
		showTarget: cfg.ShowTarget,
		videoID:    cfg.Video,
		seen:       map[int]struct{}{},
	}
	m.startedAt = m.now()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), tick())
}

func (m *Model) loadCmd() tea.Cmd {
	switch {
	case m.cfg.SourceFile != "":
		m.setStatus("Loading subtitles...", false)
		return loadFilesCmd(m.cfg.SourceFile, m.cfg.TargetFile, m.cfg.MergeSentences)
	case m.videoID != "" && m.backend != nil:
		m.setStatus("Loading subtitles...", false)
		return fetchSubtitlesCmd(m.backend, m.videoID)
	default:
		m.setStatus("No subtitles to load", true)
		return nil
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.Width = max(10, msg.Width-lipgloss.Width(m.search.Prompt)-2)
		m.blocksValid = false
		m.updateLayout()
		m.refreshContent()
		return m, nil
	case tickMsg:
		m.onTick()
		return m, tick()
	case cuesLoadedMsg:
		return m, m.onCuesLoaded(msg)
	case translationMsg:
		return m, m.onTranslation(msg)
	case lookupMsg:
		m.onLookup(msg)
		return m, nil
	case bankMsg:
		if msg.err != nil {
			m.logger.Warn("failed to save word", "word", msg.word, "err", msg.err)
			m.setStatus("Save failed: "+msg.err.Error(), true)
			return m, nil
		}
		text := msg.message
		if text == "" {
			text = "Saved " + msg.word
		}
		m.setStatus(text, false)
		return m, nil
	case tea.KeyMsg:
		if m.searchOn {
			return m.updateSearch(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	parts := []string{m.viewport.View()}
	if panel := m.lookupPanel(); panel != "" {
		parts = append(parts, panel)
	}
	if m.searchOn {
		parts = append(parts, m.search.View())
	}
	parts = append(parts, m.renderFooter(), renderHelp())
	return strings.Join(parts, "\n")
}

func (m *Model) onTick() {
	frame := m.engine.Tick()
	m.position, m.hasPosition = frame.Position, frame.HasPosition
	if !frame.Changed {
		return
	}
	if idx := frame.State.CueIndex; idx >= 0 {
		m.seen[idx] = struct{}{}
	}
	m.refreshContent()
	if frame.CueChanged && m.autoScroll {
		m.scrollToActive()
	}
}

func (m *Model) onCuesLoaded(msg cuesLoadedMsg) tea.Cmd {
	if msg.err != nil {
		m.logger.Error("subtitle load failed", "video", msg.videoID, "err", msg.err)
		m.setStatus(msg.err.Error(), true)
		return nil
	}
	gen := m.engine.IngestCues(msg.cues)
	if msg.videoID != "" {
		m.videoID = msg.videoID
	}
	m.seen = map[int]struct{}{}
	m.blocksValid = false
	m.refreshContent()
	m.viewport.GotoTop()
	m.logger.Info("subtitles loaded", "video", m.videoID, "cues", len(msg.cues), "generation", gen)
	m.setStatus("Loaded "+strconv.Itoa(len(msg.cues))+" cues", false)

	if !msg.needsTranslation || msg.progressKey == "" || m.backend == nil {
		m.translating = false
		return nil
	}
	m.translating = true
	m.translationPct = 0
	return pollTranslationCmd(m.backend, gen, msg.progressKey, 0, m.now())
}

func (m *Model) onTranslation(msg translationMsg) tea.Cmd {
	if msg.gen != m.engine.Store().Generation() {
		m.logger.Debug("dropping translation for superseded load", "generation", msg.gen)
		return nil
	}
	if msg.err != nil {
		m.translating = false
		m.logger.Warn("translation polling stopped", "key", msg.key, "err", msg.err)
		m.setStatus("Translation stopped: "+msg.err.Error(), true)
		return nil
	}
	applied := 0
	for _, item := range msg.progress.NewItems {
		if m.engine.IngestTranslationFor(msg.gen, item.Partial()) {
			applied++
		}
	}
	if applied > 0 {
		m.blocksValid = false
		m.refreshContent()
	}
	m.translationPct = msg.progress.Percent()
	if msg.progress.Completed {
		m.translating = false
		m.setStatus("Translation complete", false)
		return nil
	}
	return pollTranslationCmd(m.backend, msg.gen, msg.key, msg.progress.LastIndex, msg.started)
}

func (m *Model) onLookup(msg lookupMsg) {
	if msg.word != m.lookupWord {
		return
	}
	m.lookupPending = false
	if msg.err != nil {
		m.lookupInfo = nil
		if errors.Is(msg.err, client.ErrNotFound) {
			m.lookupErr = "No dictionary entry"
		} else {
			m.lookupErr = msg.err.Error()
			m.logger.Warn("lookup failed", "word", msg.word, "err", msg.err)
		}
	} else {
		info := msg.info
		m.lookupInfo = &info
		m.lookupErr = ""
	}
	m.updateLayout()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.finishSession()
		return m, tea.Quit
	case "+", "=":
		m.adjustOffset(clock.OffsetStep)
	case "-", "_":
		m.adjustOffset(-clock.OffsetStep)
	case "0":
		m.engine.ResetOffset()
		m.persistSetting(store.SettingTimeOffset, "0")
	case "h":
		on := !m.engine.HighlightEnabled()
		m.engine.SetHighlightEnabled(on)
		m.persistSetting(store.SettingHighlight, strconv.FormatBool(on))
		m.refreshContent()
	case "a":
		m.autoScroll = !m.autoScroll
		if m.autoScroll {
			m.scrollToActive()
		}
	case "s":
		m.showSource = !m.showSource
		m.blocksValid = false
		m.refreshContent()
	case "t":
		m.showTarget = !m.showTarget
		m.blocksValid = false
		m.refreshContent()
	case " ":
		m.playerAction(func(p clock.Player) error { return p.TogglePause() })
	case "left":
		m.playerAction(func(clock.Player) error { return m.engine.Clock().SeekRelative(-seekStep) })
	case "right":
		m.playerAction(func(clock.Player) error { return m.engine.Clock().SeekRelative(seekStep) })
	case "w":
		return m, m.lookupActive()
	case "/":
		m.searchOn = true
		m.search.SetValue("")
		m.updateLayout()
		return m, m.search.Focus()
	case "b":
		return m, m.saveWord()
	case "esc":
		m.clearLookup()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchOn = false
		m.search.Blur()
		m.updateLayout()
		return m, nil
	case tea.KeyEnter:
		word := strings.TrimSpace(m.search.Value())
		m.searchOn = false
		m.search.Blur()
		m.updateLayout()
		if word == "" {
			return m, nil
		}
		return m, m.lookup(word)
	case tea.KeyCtrlC:
		m.finishSession()
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) adjustOffset(delta float64) {
	offset := m.engine.AdjustOffset(delta)
	m.persistSetting(store.SettingTimeOffset, strconv.FormatFloat(offset, 'f', -1, 64))
	m.setStatus("Offset "+clock.FormatOffset(offset), false)
}

func (m *Model) playerAction(action func(clock.Player) error) {
	player := m.engine.Clock().Player()
	if player == nil {
		m.setStatus("No player attached", true)
		return
	}
	if err := action(player); err != nil {
		m.logger.Debug("player action failed", "err", err)
		m.setStatus("Player: "+err.Error(), true)
	}
}

// lookupActive looks up the highlighted word, or the first word of the
// active cue when nothing is highlighted.
func (m *Model) lookupActive() tea.Cmd {
	tok, ok := m.engine.ActiveToken()
	if !ok {
		state := m.engine.State()
		if state.CueIndex < 0 {
			m.setStatus("No active cue", true)
			return nil
		}
		tokens := m.engine.Tokens(state.CueIndex)
		if len(tokens) == 0 {
			m.setStatus("No word to look up", true)
			return nil
		}
		tok = tokens[0]
	}
	return m.lookup(tok.Text)
}

func (m *Model) lookup(word string) tea.Cmd {
	if m.backend == nil {
		m.setStatus("Lookup needs a server", true)
		return nil
	}
	m.lookupWord = word
	m.lookupInfo = nil
	m.lookupErr = ""
	m.lookupPending = true
	m.lookups++
	m.recordLookup(word)
	m.updateLayout()
	return lookupCmd(m.backend, word)
}

func (m *Model) saveWord() tea.Cmd {
	if m.lookupInfo == nil {
		m.setStatus("Look up a word first", true)
		return nil
	}
	if m.backend == nil || m.cfg.Nickname == "" {
		m.setStatus("Set a nickname to save words", true)
		return nil
	}
	return addWordCmd(m.backend, m.cfg.Bank, m.cfg.Nickname, m.lookupWord, m.lookupInfo)
}

func (m *Model) clearLookup() {
	m.lookupWord = ""
	m.lookupInfo = nil
	m.lookupErr = ""
	m.lookupPending = false
	m.updateLayout()
}

func (m *Model) lookupPanel() string {
	if m.lookupWord == "" {
		return ""
	}
	return renderLookup(m.lookupWord, m.lookupInfo, m.lookupErr, m.lookupPending, m.width)
}

func (m *Model) recordLookup(word string) {
	if m.history == nil {
		return
	}
	cueStart := 0.0
	if cue, ok := m.engine.Store().At(m.engine.State().CueIndex); ok {
		cueStart = cue.Start
	}
	err := m.history.InsertLookup(context.Background(), model.Lookup{
		Word:       word,
		VideoID:    m.videoID,
		CueStart:   cueStart,
		LookedUpAt: m.now(),
	})
	if err != nil {
		m.logger.Warn("failed to record lookup", "word", word, "err", err)
	}
}

func (m *Model) persistSetting(key, value string) {
	if m.history == nil {
		return
	}
	if err := m.history.SetSetting(context.Background(), key, value); err != nil {
		m.logger.Warn("failed to save setting", "key", key, "err", err)
	}
}

func (m *Model) finishSession() {
	if m.saved || m.history == nil || len(m.seen) == 0 {
		return
	}
	m.saved = true
	endedAt := m.now()
	session := model.WatchSession{
		VideoID:    m.videoID,
		StartedAt:  m.startedAt,
		EndedAt:    endedAt,
		CuesSeen:   len(m.seen),
		Lookups:    m.lookups,
		DurationMs: endedAt.Sub(m.startedAt).Milliseconds(),
	}
	id, err := m.history.InsertWatchSession(context.Background(), session)
	if err != nil {
		m.logger.Error("failed to save session", "err", err)
		return
	}
	m.logger.Info("session saved", "id", id, "cues", session.CuesSeen, "lookups", session.Lookups)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
	m.updateLayout()
}

func (m *Model) renderOptions() renderOptions {
	width := m.width
	if width <= 0 {
		width = 80
	}
	return renderOptions{width: width, showSource: m.showSource, showTarget: m.showTarget}
}

// refreshContent redraws the cue list as a projection of the engine state.
// Inactive blocks are cached until cues, width or visibility change.
func (m *Model) refreshContent() {
	cues := m.engine.Store().View()
	opts := m.renderOptions()
	if !m.blocksValid || len(m.blocks) != len(cues) {
		m.blocks = make([]string, len(cues))
		for i, cue := range cues {
			m.blocks[i] = renderCueBlock(cue, nil, -1, false, opts)
		}
		m.blocksValid = true
		m.shownCue = -1
	}
	if m.shownCue >= 0 && m.shownCue < len(cues) {
		m.blocks[m.shownCue] = renderCueBlock(cues[m.shownCue], nil, -1, false, opts)
	}
	state := m.engine.State()
	m.shownCue = state.CueIndex
	if state.CueIndex >= 0 && state.CueIndex < len(cues) {
		tokens := m.engine.Tokens(state.CueIndex)
		m.blocks[state.CueIndex] = renderCueBlock(cues[state.CueIndex], tokens, state.TokenIndex, true, opts)
	}
	content, starts := joinBlocks(m.blocks)
	m.blockStarts = starts
	m.viewport.SetContent(content)
}

func (m *Model) scrollToActive() {
	idx := m.engine.State().CueIndex
	if idx < 0 || idx >= len(m.blockStarts) {
		return
	}
	m.viewport.SetYOffset(max(0, m.blockStarts[idx]-m.viewport.Height/3))
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	used := lipgloss.Height(m.renderFooter()) + 1
	if panel := m.lookupPanel(); panel != "" {
		used += lipgloss.Height(panel)
	}
	if m.searchOn {
		used++
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(1, m.height-used)
}
