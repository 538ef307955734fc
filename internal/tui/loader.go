package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/subtutor/internal/client"
	"github.com/verte-zerg/subtutor/internal/model"
	"github.com/verte-zerg/subtutor/internal/subtitle"
	"github.com/verte-zerg/subtutor/internal/syncer"
)

const (
	pollInterval  = 300 * time.Millisecond
	pollLimit     = 60 * time.Second
	lookupTimeout = 15 * time.Second
)

var errPollTimeout = errors.New("translation did not finish in time")

// Backend is the part of the backend client the watcher uses.
type Backend interface {
	FetchSubtitles(ctx context.Context, videoID string) (client.SubtitleResponse, error)
	TranslationProgress(ctx context.Context, key string, lastIndex int) (client.TranslationProgress, error)
	LookupWord(ctx context.Context, text string) (client.WordInfo, error)
	AddWordToBank(ctx context.Context, bank, nickname, word string, info *client.WordInfo) (string, error)
}

type tickMsg time.Time

type cuesLoadedMsg struct {
	cues             []model.Cue
	videoID          string
	progressKey      string
	needsTranslation bool
	err              error
}

// translationMsg carries one poll result. gen is the load it belongs to.
type translationMsg struct {
	gen      uint64
	key      string
	started  time.Time
	progress client.TranslationProgress
	err      error
}

type lookupMsg struct {
	word string
	info client.WordInfo
	err  error
}

type bankMsg struct {
	word    string
	message string
	err     error
}

func tick() tea.Cmd {
	return tea.Tick(syncer.TickInterval*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSubtitlesCmd(backend Backend, videoID string) tea.Cmd {
	return func() tea.Msg {
		resp, err := backend.FetchSubtitles(context.Background(), videoID)
		if err != nil {
			return cuesLoadedMsg{videoID: videoID, err: fmt.Errorf("failed to load subtitles: %w", err)}
		}
		return cuesLoadedMsg{
			cues:             resp.Cues(),
			videoID:          videoID,
			progressKey:      resp.ProgressKey,
			needsTranslation: resp.NeedsTranslation,
		}
	}
}

// loadFilesCmd parses local subtitle files. A target file is paired to the
// source cues by overlap.
func loadFilesCmd(sourcePath, targetPath string, merge bool) tea.Cmd {
	return func() tea.Msg {
		cues, err := readCues(sourcePath)
		if err != nil {
			return cuesLoadedMsg{err: err}
		}
		if merge {
			cues = subtitle.MergeSentences(cues)
		}
		if targetPath != "" {
			target, err := readCues(targetPath)
			if err != nil {
				return cuesLoadedMsg{err: err}
			}
			cues = subtitle.PairTargets(cues, target)
		}
		return cuesLoadedMsg{cues: cues}
	}
}

func readCues(path string) ([]model.Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitles: %w", err)
	}
	cues, err := subtitle.Parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(cues) == 0 {
		return nil, fmt.Errorf("no cues found in %s", path)
	}
	return cues, nil
}

// pollTranslationCmd waits one poll period and asks for translations after
// lastIndex. Polling gives up pollLimit after started.
func pollTranslationCmd(backend Backend, gen uint64, key string, lastIndex int, started time.Time) tea.Cmd {
	return tea.Tick(pollInterval, func(now time.Time) tea.Msg {
		msg := translationMsg{gen: gen, key: key, started: started}
		if now.Sub(started) > pollLimit {
			msg.err = errPollTimeout
			return msg
		}
		ctx, cancel := context.WithTimeout(context.Background(), pollLimit)
		defer cancel()
		msg.progress, msg.err = backend.TranslationProgress(ctx, key, lastIndex)
		return msg
	})
}

func lookupCmd(backend Backend, word string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()
		info, err := backend.LookupWord(ctx, word)
		return lookupMsg{word: word, info: info, err: err}
	}
}

func addWordCmd(backend Backend, bank, nickname, word string, info *client.WordInfo) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()
		message, err := backend.AddWordToBank(ctx, bank, nickname, word, info)
		return bankMsg{word: word, message: message, err: err}
	}
}
