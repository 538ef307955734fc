package subtitle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/verte-zerg/subtutor/internal/model"
)

var (
	blockSplitRe = regexp.MustCompile(`\n\s*\n`)
	indexLineRe  = regexp.MustCompile(`^\d+$`)
)

// ParseText parses SRT or WebVTT content into raw cues with Source set.
// Blocks without a readable timecode or text are skipped.
func ParseText(content string) []model.Cue {
	content = strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if content == "" {
		return nil
	}
	var cues []model.Cue
	for _, block := range blockSplitRe.Split(content, -1) {
		lines := nonEmptyLines(block)
		if len(lines) == 0 {
			continue
		}
		if strings.HasPrefix(strings.ToUpper(lines[0]), "WEBVTT") {
			continue
		}
		timeIdx := 0
		if indexLineRe.MatchString(lines[0]) && len(lines) >= 2 {
			timeIdx = 1
		}
		start, end, ok := parseTimecode(lines[timeIdx])
		if !ok {
			continue
		}
		text := strings.TrimSpace(strings.Join(lines[timeIdx+1:], " "))
		if text == "" {
			continue
		}
		cues = append(cues, model.Cue{Start: start, End: end, Source: text})
	}
	return cues
}

type json3Doc struct {
	Events []struct {
		TStartMs    *int64 `json:"tStartMs"`
		DDurationMs int64  `json:"dDurationMs"`
		Segs        []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// ParseJSON3 parses YouTube json3 timed text into raw cues.
func ParseJSON3(data []byte) ([]model.Cue, error) {
	var doc json3Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode json3: %w", err)
	}
	var cues []model.Cue
	for _, ev := range doc.Events {
		if ev.TStartMs == nil || len(ev.Segs) == 0 {
			continue
		}
		// Segments carry their own leading spaces.
		var b strings.Builder
		for _, seg := range ev.Segs {
			b.WriteString(seg.UTF8)
		}
		text := strings.Join(strings.Fields(b.String()), " ")
		if text == "" {
			continue
		}
		start := float64(*ev.TStartMs) / 1000
		cues = append(cues, model.Cue{
			Start:  start,
			End:    start + float64(ev.DDurationMs)/1000,
			Source: text,
		})
	}
	return cues, nil
}

// Parse picks a parser from the file name extension.
func Parse(name string, data []byte) ([]model.Cue, error) {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".json") || strings.HasSuffix(lower, ".json3") {
		return ParseJSON3(data)
	}
	return ParseText(string(data)), nil
}

func nonEmptyLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func parseTimecode(line string) (start, end float64, ok bool) {
	left, right, found := strings.Cut(line, "-->")
	if !found {
		return 0, 0, false
	}
	// VTT cue settings follow the end timestamp.
	if fields := strings.Fields(right); len(fields) > 0 {
		right = fields[0]
	}
	start, ok = parseTimestamp(left)
	if !ok {
		return 0, 0, false
	}
	end, ok = parseTimestamp(right)
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}

// parseTimestamp accepts H:MM:SS.mmm, MM:SS.mmm with comma or dot separators.
func parseTimestamp(ts string) (float64, bool) {
	ts = strings.TrimSpace(ts)
	main, frac, found := strings.Cut(strings.Replace(ts, ",", ".", 1), ".")
	if !found {
		return 0, false
	}
	parts := strings.Split(main, ":")
	var h, m, s int
	var err error
	switch len(parts) {
	case 3:
		if h, err = strconv.Atoi(parts[0]); err != nil {
			return 0, false
		}
		parts = parts[1:]
	case 2:
	default:
		return 0, false
	}
	if m, err = strconv.Atoi(parts[0]); err != nil {
		return 0, false
	}
	if s, err = strconv.Atoi(parts[1]); err != nil {
		return 0, false
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, frac)
	if len(digits) > 3 {
		digits = digits[:3]
	}
	ms := 0
	if digits != "" {
		digits += strings.Repeat("0", 3-len(digits))
		ms, _ = strconv.Atoi(digits)
	}
	return float64(h*3600+m*60+s) + float64(ms)/1000, true
}
