package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/subtutor/internal/client"
	"github.com/verte-zerg/subtutor/internal/clock"
	"github.com/verte-zerg/subtutor/internal/model"
)

var (
	activeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	inactiveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	wordStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Underline(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("#C89A3A")).Bold(true)
	targetStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB7BE"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)

	activeBlockStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder(), false, false, false, true).
				BorderForeground(lipgloss.Color("#C89A3A")).
				PaddingLeft(1)
	inactiveBlockStyle = lipgloss.NewStyle().PaddingLeft(2)
	panelStyle         = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A")).
				Padding(0, 1)
)

const blockGutter = 2

type renderOptions struct {
	width      int
	showSource bool
	showTarget bool
}

// renderCueBlock draws one cue. tokens and activeToken only matter for the
// active cue.
func renderCueBlock(cue model.Cue, tokens []model.Token, activeToken int, active bool, opts renderOptions) string {
	width := opts.width - blockGutter
	if width < 1 {
		width = 1
	}
	var lines []string
	if opts.showSource || cue.Target == "" {
		base := inactiveStyle
		if active {
			base = activeStyle
		} else {
			tokens = nil
			activeToken = -1
		}
		lines = append(lines, wrapStyledRunes(buildStyledRunes([]rune(cue.Source), tokens, activeToken, base), width))
	}
	if opts.showTarget && cue.Target != "" {
		lines = append(lines, wrapStyledRunes(buildStyledRunes([]rune(cue.Target), nil, -1, targetStyle), width))
	}
	block := strings.Join(lines, "\n")
	if active {
		return activeBlockStyle.Render(block)
	}
	return inactiveBlockStyle.Render(block)
}

// joinBlocks stacks cue blocks with a blank line between them and returns
// the first line of every block.
func joinBlocks(blocks []string) (string, []int) {
	starts := make([]int, len(blocks))
	line := 0
	for i, block := range blocks {
		starts[i] = line
		line += strings.Count(block, "\n") + 2
	}
	return strings.Join(blocks, "\n\n"), starts
}

func formatPosition(pos float64) string {
	if pos < 0 {
		pos = 0
	}
	total := int(pos)
	return fmt.Sprintf("%02d:%02d.%d", total/60, total%60, int((pos-float64(total))*10))
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (m *Model) renderFooter() string {
	state := m.engine.State()
	segments := make([]string, 0, 6)
	if m.hasPosition {
		segments = append(segments, formatPosition(m.position))
	} else {
		segments = append(segments, "--:--.-")
	}
	if n := m.engine.Store().Len(); n > 0 {
		cue := "-"
		if state.CueIndex >= 0 {
			cue = fmt.Sprintf("%d", state.CueIndex+1)
		}
		segments = append(segments, fmt.Sprintf("Cue %s/%d", cue, n))
	}
	segments = append(segments,
		fmt.Sprintf("Offset %s", clock.FormatOffset(m.engine.Clock().Offset())),
		fmt.Sprintf("Highlight %s", onOff(m.engine.HighlightEnabled())),
		fmt.Sprintf("Scroll %s", onOff(m.autoScroll)),
	)
	if m.translating {
		segments = append(segments, fmt.Sprintf("Translating %d%%", m.translationPct))
	}
	footer := footerStyle.Render(strings.Join(segments, "  "))
	if m.status == "" {
		return footer
	}
	if m.statusErr {
		return footer + "\n" + errorStyle.Render(m.status)
	}
	return footer + "\n" + footerStyle.Render(m.status)
}

func renderHelp() string {
	return footerStyle.Render("space play/pause  ←/→ seek  +/- offset  0 reset  h highlight  a scroll  s/t source/target  w look up  / search  b save word  q quit")
}

func renderLookup(word string, info *client.WordInfo, errMsg string, pending bool, width int) string {
	inner := width - 4
	if inner < 10 {
		inner = 10
	}
	var lines []string
	switch {
	case pending:
		lines = append(lines, titleStyle.Render(word), footerStyle.Render("Looking up..."))
	case errMsg != "":
		lines = append(lines, titleStyle.Render(word), errorStyle.Render(errMsg))
	case info != nil:
		head := titleStyle.Render(info.Word)
		if info.Phonetic != "" {
			head += " " + footerStyle.Render(info.Phonetic)
		}
		if info.WordTranslation != "" {
			head += "  " + targetStyle.Render(info.WordTranslation)
		}
		lines = append(lines, head)
		for _, meaning := range info.Meanings {
			if len(meaning.Definitions) == 0 {
				continue
			}
			def := meaning.Definitions[0]
			text := def.Definition
			if def.DefinitionZh != "" {
				text += " / " + def.DefinitionZh
			}
			lines = append(lines, truncate(fmt.Sprintf("%s: %s", meaning.PartOfSpeech, text), inner))
			if len(lines) >= 4 {
				break
			}
		}
	default:
		return ""
	}
	return panelStyle.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
