package statsui

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/subtutor/internal/model"
)

const (
	fieldVideo = iota
	fieldSince
	fieldLast
	fieldTop
)

type formResult int

const (
	formEditing formResult = iota
	formApplied
	formCancelled
)

// filterForm edits a StatsConfig in place of the body.
type filterForm struct {
	fields []textinput.Model
	focus  int
	err    string
}

func newFilterForm() *filterForm {
	prompts := []string{"video  ", "since  ", "last   ", "top    "}
	placeholders := []string{"any video id", "YYYY-MM-DD", "all sessions", "all words"}
	f := &filterForm{fields: make([]textinput.Model, len(prompts))}
	for i, prompt := range prompts {
		in := textinput.New()
		in.Prompt = prompt
		in.Placeholder = placeholders[i]
		in.PromptStyle = dimStyle
		in.Cursor.SetMode(cursor.CursorStatic)
		f.fields[i] = in
	}
	return f
}

// load fills the fields from cfg and focuses the first one.
func (f *filterForm) load(cfg model.StatsConfig) tea.Cmd {
	f.err = ""
	f.fields[fieldVideo].SetValue(cfg.Video)
	f.fields[fieldSince].SetValue("")
	if cfg.Since != nil {
		f.fields[fieldSince].SetValue(cfg.Since.Format(time.DateOnly))
	}
	f.fields[fieldLast].SetValue(countText(cfg.Last))
	f.fields[fieldTop].SetValue(countText(cfg.Top))
	return f.focusField(0)
}

func countText(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func (f *filterForm) focusField(i int) tea.Cmd {
	f.focus = (i + len(f.fields)) % len(f.fields)
	var cmd tea.Cmd
	for j := range f.fields {
		if j == f.focus {
			cmd = f.fields[j].Focus()
			continue
		}
		f.fields[j].Blur()
	}
	return cmd
}

func (f *filterForm) setWidth(width int) {
	for i := range f.fields {
		f.fields[i].Width = max(10, width-lipgloss.Width(f.fields[i].Prompt)-2)
	}
}

// update handles one key. On formApplied the parsed config is returned.
func (f *filterForm) update(msg tea.KeyMsg) (formResult, model.StatsConfig, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		f.err = ""
		return formCancelled, model.StatsConfig{}, nil
	case tea.KeyEnter:
		cfg, err := f.config()
		if err != nil {
			f.err = err.Error()
			return formEditing, model.StatsConfig{}, nil
		}
		f.err = ""
		return formApplied, cfg, nil
	case tea.KeyTab, tea.KeyDown:
		return formEditing, model.StatsConfig{}, f.focusField(f.focus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return formEditing, model.StatsConfig{}, f.focusField(f.focus - 1)
	}
	var cmd tea.Cmd
	f.fields[f.focus], cmd = f.fields[f.focus].Update(msg)
	return formEditing, model.StatsConfig{}, cmd
}

func (f *filterForm) config() (model.StatsConfig, error) {
	cfg := model.StatsConfig{Video: strings.TrimSpace(f.fields[fieldVideo].Value())}
	if raw := strings.TrimSpace(f.fields[fieldSince].Value()); raw != "" {
		since, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
		if err != nil {
			return model.StatsConfig{}, errors.New("since: expected YYYY-MM-DD")
		}
		cfg.Since = &since
	}
	var err error
	if cfg.Last, err = parseCount(f.fields[fieldLast].Value()); err != nil {
		return model.StatsConfig{}, errors.New("last: " + err.Error())
	}
	if cfg.Top, err = parseCount(f.fields[fieldTop].Value()); err != nil {
		return model.StatsConfig{}, errors.New("top: " + err.Error())
	}
	return cfg, nil
}

func parseCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("expected a non-negative number")
	}
	return n, nil
}

func (f *filterForm) view() string {
	lines := make([]string, 0, len(f.fields)+2)
	lines = append(lines, dimStyle.Render("enter apply · tab next field · esc cancel"), "")
	for _, in := range f.fields {
		lines = append(lines, in.View())
	}
	if f.err != "" {
		lines = append(lines, "", errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}
