package statsui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/subtutor/internal/model"
	"github.com/verte-zerg/subtutor/internal/stats"
)

const sparkWindow = 3

func newTable(columns []table.Column) table.Model {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Foreground(accent).
		Bold(true).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(muted)
	styles.Selected = lipgloss.NewStyle().Foreground(bright).Background(lipgloss.Color("#2C323C"))
	t := table.New(table.WithColumns(columns), table.WithFocused(true))
	t.SetStyles(styles)
	return t
}

func wordColumns() []table.Column {
	return []table.Column{
		{Title: "Word", Width: 20},
		{Title: "Lookups", Width: 8},
		{Title: "Last", Width: 11},
	}
}

func sessionColumns() []table.Column {
	return []table.Column{
		{Title: "Started", Width: 17},
		{Title: "Video", Width: 14},
		{Title: "Minutes", Width: 8},
		{Title: "Cues", Width: 6},
		{Title: "Lookups", Width: 8},
	}
}

func wordRows(words []model.WordAggregate) []table.Row {
	rows := make([]table.Row, 0, len(words))
	for _, w := range words {
		rows = append(rows, table.Row{
			w.Word,
			strconv.Itoa(w.Count),
			w.LastAt.Local().Format(time.DateOnly),
		})
	}
	return rows
}

// sessionRows lists sessions newest first.
func sessionRows(sessions []model.WatchSession) []table.Row {
	rows := make([]table.Row, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		video := s.VideoID
		if video == "" {
			video = "(local)"
		}
		rows = append(rows, table.Row{
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			video,
			fmt.Sprintf("%.1f", stats.SessionMinutes(s)),
			strconv.Itoa(s.CuesSeen),
			strconv.Itoa(s.Lookups),
		})
	}
	return rows
}

// renderOverview draws the metric cards above the daily sparkline.
func renderOverview(report stats.Report, width int) string {
	if len(report.Sessions) == 0 {
		return "No sessions found."
	}
	var minutes float64
	var cues, lookups int
	for _, s := range report.Sessions {
		minutes += stats.SessionMinutes(s)
		cues += s.CuesSeen
		lookups += s.Lookups
	}
	cards := []string{
		card("Sessions", strconv.Itoa(len(report.Sessions))),
		card("Minutes", fmt.Sprintf("%.1f", minutes)),
		card("Cues seen", strconv.Itoa(cues)),
		card("Lookups", strconv.Itoa(lookups)),
		card("Per 10 min", fmt.Sprintf("%.2f", stats.LookupRate(lookups, minutes))),
	}
	perRow := max(1, width/lipgloss.Width(cards[0]))
	var rows []string
	for len(cards) > 0 {
		n := min(perRow, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[:n]...))
		cards = cards[n:]
	}
	out := lipgloss.JoinVertical(lipgloss.Left, rows...)

	var buf bytes.Buffer
	if err := stats.RenderDaily(&buf, report.Days, sparkWindow, width); err != nil {
		return out + "\n\n" + errorStyle.Render("daily totals: "+err.Error())
	}
	return out + "\n\n" + strings.TrimRight(buf.String(), "\n")
}

func card(label, value string) string {
	return cardStyle.Render(cardLabelStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func filterSummary(cfg model.StatsConfig, width int) string {
	parts := []string{}
	if cfg.Video != "" {
		parts = append(parts, "video "+cfg.Video)
	}
	if cfg.Since != nil {
		parts = append(parts, "since "+cfg.Since.Format(time.DateOnly))
	}
	if cfg.Last > 0 {
		parts = append(parts, "last "+strconv.Itoa(cfg.Last))
	}
	if cfg.Top > 0 {
		parts = append(parts, "top "+strconv.Itoa(cfg.Top))
	}
	text := "all history"
	if len(parts) > 0 {
		text = strings.Join(parts, " · ")
	}
	return dimStyle.Render(runewidth.Truncate(text, max(0, width), "…"))
}

// frame pads s to exactly width x height cells, cutting overflow.
func frame(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	clipped := lipgloss.NewStyle().MaxWidth(width).MaxHeight(height).Render(s)
	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, clipped)
}
