// Package stats contains watch history calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/subtutor/internal/model"
)

const sparkChars = " .:-=+*#%@"

// DayTotal is the watch time for one calendar day.
type DayTotal struct {
	Day     time.Time
	Minutes float64
	Lookups int
}

// SessionMinutes returns the watch duration in minutes.
func SessionMinutes(s model.WatchSession) float64 {
	if s.DurationMs <= 0 {
		return 0
	}
	return float64(s.DurationMs) / 60000.0
}

// LookupRate returns lookups per ten minutes watched.
func LookupRate(lookups int, minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	return float64(lookups) / minutes * 10
}

// DailyTotals groups sessions by local start day, filling gaps with zero days.
func DailyTotals(sessions []model.WatchSession) []DayTotal {
	if len(sessions) == 0 {
		return nil
	}
	byDay := make(map[time.Time]*DayTotal)
	first, last := dayOf(sessions[0].StartedAt), dayOf(sessions[0].StartedAt)
	for _, s := range sessions {
		day := dayOf(s.StartedAt)
		if day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
		total, ok := byDay[day]
		if !ok {
			total = &DayTotal{Day: day}
			byDay[day] = total
		}
		total.Minutes += SessionMinutes(s)
		total.Lookups += s.Lookups
	}
	var out []DayTotal
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if total, ok := byDay[day]; ok {
			out = append(out, *total)
			continue
		}
		out = append(out, DayTotal{Day: day})
	}
	return out
}

func dayOf(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Resample fits values into width buckets, averaging when shrinking.
func Resample(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	if len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

// RenderSummary prints totals for the sessions.
func RenderSummary(w io.Writer, sessions []model.WatchSession) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var minutes float64
	var cues, lookups int
	videos := make(map[string]struct{})
	for _, s := range sessions {
		minutes += SessionMinutes(s)
		cues += s.CuesSeen
		lookups += s.Lookups
		if s.VideoID != "" {
			videos[s.VideoID] = struct{}{}
		}
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Videos: %d", len(videos)),
		fmt.Sprintf("Minutes watched: %.1f", minutes),
		fmt.Sprintf("Cues seen: %d", cues),
		fmt.Sprintf("Lookups: %d", lookups),
		fmt.Sprintf("Lookups per 10 min: %.2f", LookupRate(lookups, minutes)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderDaily prints a minutes-per-day sparkline sized to width.
func RenderDaily(w io.Writer, days []DayTotal, window, width int) error {
	if len(days) == 0 {
		return nil
	}
	values := make([]float64, len(days))
	for i, d := range days {
		values[i] = d.Minutes
	}
	const label = "Minutes/day "
	plotWidth := max(width-len(label), 10)
	line := Sparkline(Resample(MovingAverage(values, window), plotWidth))
	first := days[0].Day.Format(time.DateOnly)
	last := days[len(days)-1].Day.Format(time.DateOnly)
	if _, err := fmt.Fprintf(w, "Daily (%s .. %s)\n", first, last); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%s\n\n", label, line); err != nil {
		return err
	}
	return nil
}

// RenderTopWords prints the most looked-up words.
func RenderTopWords(w io.Writer, words []model.WordAggregate) error {
	if len(words) == 0 {
		_, err := fmt.Fprintln(w, "No lookups found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Top Looked-Up Words"); err != nil {
		return err
	}
	headers := []string{"Word", "Lookups", "Last"}
	rows := make([][]string, 0, len(words))
	for _, agg := range words {
		rows = append(rows, []string{
			agg.Word,
			fmt.Sprintf("%d", agg.Count),
			agg.LastAt.Local().Format(time.DateOnly),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
