// Package statsui provides the Bubble Tea watch history interface.
package statsui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/subtutor/internal/model"
	"github.com/verte-zerg/subtutor/internal/stats"
	"github.com/verte-zerg/subtutor/internal/store"
)

const (
	tabOverview = iota
	tabWords
	tabSessions
)

var tabNames = []string{"Overview", "Words", "Sessions"}

// Model browses stored watch sessions and lookups.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	report stats.Report
	errMsg string

	activeTab int
	overview  viewport.Model
	words     table.Model
	sessions  table.Model

	keys keyMap
	help help.Model

	filtering bool
	form      *filterForm

	width  int
	height int
}

// NewModel loads the report for cfg and returns the browser.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store:    st,
		cfg:      cfg,
		overview: viewport.New(0, 0),
		words:    newTable(wordColumns()),
		sessions: newTable(sessionColumns()),
		keys:     defaultKeys(),
		help:     help.New(),
		form:     newFilterForm(),
	}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filtering {
			return m, m.updateForm(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.PrevTab):
		m.activeTab = (m.activeTab + len(tabNames) - 1) % len(tabNames)
	case key.Matches(msg, m.keys.NextTab):
		m.activeTab = (m.activeTab + 1) % len(tabNames)
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m.form.load(m.cfg)
	case key.Matches(msg, m.keys.Top):
		if t := m.activeTable(); t != nil {
			t.GotoTop()
		} else {
			m.overview.GotoTop()
		}
	case key.Matches(msg, m.keys.Bottom):
		if t := m.activeTable(); t != nil {
			t.GotoBottom()
		} else {
			m.overview.GotoBottom()
		}
	default:
		var cmd tea.Cmd
		if t := m.activeTable(); t != nil {
			*t, cmd = t.Update(msg)
		} else {
			m.overview, cmd = m.overview.Update(msg)
		}
		return cmd
	}
	return nil
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	result, cfg, cmd := m.form.update(msg)
	switch result {
	case formApplied:
		m.cfg = cfg
		m.filtering = false
		m.reload()
	case formCancelled:
		m.filtering = false
	}
	return cmd
}

func (m *Model) activeTable() *table.Model {
	switch m.activeTab {
	case tabWords:
		return &m.words
	case tabSessions:
		return &m.sessions
	}
	return nil
}

func (m *Model) reload() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load history.")
		return
	}
	m.errMsg = ""
	m.report = report
	m.words.SetRows(wordRows(report.Words))
	m.sessions.SetRows(sessionRows(report.Sessions))
	m.overview.SetContent(renderOverview(report, m.contentWidth()))
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func (m *Model) bodyHeight() int {
	used := lipgloss.Height(m.renderTabs()) + 1 + 1
	if m.errMsg != "" {
		used++
	}
	return max(1, m.height-used)
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	body := m.bodyHeight()
	m.overview.Width, m.overview.Height = m.width, body
	for _, t := range []*table.Model{&m.words, &m.sessions} {
		t.SetWidth(m.width)
		t.SetHeight(max(1, body-1))
	}
	m.form.setWidth(m.width)
	m.help.Width = m.width
	if m.errMsg == "" {
		m.overview.SetContent(renderOverview(m.report, m.width))
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), filterSummary(m.cfg, m.width))
	footer := m.help.View(m.keys)
	if m.errMsg != "" {
		footer = errorStyle.Render(m.errMsg) + "\n" + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		frame(header, m.width, lipgloss.Height(header)),
		frame(m.renderBody(), m.width, m.bodyHeight()),
		frame(footer, m.width, lipgloss.Height(footer)),
	)
}

func (m *Model) renderTabs() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		style := tabStyle
		if i == m.activeTab {
			style = activeTabStyle
		}
		tabs[i] = style.Render(name)
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}

func (m *Model) renderBody() string {
	if m.filtering {
		return m.form.view()
	}
	switch m.activeTab {
	case tabWords:
		if len(m.report.Words) == 0 {
			return dimStyle.Render("No lookups found.")
		}
		return m.words.View()
	case tabSessions:
		if len(m.report.Sessions) == 0 {
			return dimStyle.Render("No sessions found.")
		}
		return m.sessions.View()
	}
	return m.overview.View()
}
