package stats

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/verte-zerg/subtutor/internal/model"
	"github.com/verte-zerg/subtutor/internal/store"
)

const terminalWidthBackup = 80

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions []model.WatchSession
	Days     []DayTotal
	Words    []model.WordAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListWatchSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	words, err := st.TopLookups(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Sessions: sessions,
		Days:     DailyTotals(sessions),
		Words:    words,
	}, nil
}

// Render writes the full report.
func (r Report) Render(w io.Writer, width int) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if err := RenderDaily(w, r.Days, 3, width); err != nil {
		return err
	}
	return RenderTopWords(w, r.Words)
}

// TerminalWidth returns the width of stdout, or a fallback when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
