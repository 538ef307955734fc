// Package main provides the CLI entrypoint for subtutor.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/subtutor/internal/client"
	"github.com/verte-zerg/subtutor/internal/clock"
	"github.com/verte-zerg/subtutor/internal/config"
	"github.com/verte-zerg/subtutor/internal/logger"
	"github.com/verte-zerg/subtutor/internal/model"
	"github.com/verte-zerg/subtutor/internal/stats"
	"github.com/verte-zerg/subtutor/internal/statsui"
	"github.com/verte-zerg/subtutor/internal/store"
	"github.com/verte-zerg/subtutor/internal/subtitle"
	"github.com/verte-zerg/subtutor/internal/syncer"
	"github.com/verte-zerg/subtutor/internal/tui"
	"github.com/verte-zerg/subtutor/internal/wordlist"
)

const (
	defaultServer   = "http://localhost:5000"
	defaultBank     = "default"
	defaultLogLevel = "info"
	defaultTop      = 20
)

var (
	watchServer     string
	watchVideo      string
	watchSource     string
	watchTarget     string
	watchMerge      bool
	watchMPVSocket  string
	watchHighlight  bool
	watchAutoScroll bool
	watchShowSource bool
	watchShowTarget bool
	watchStopWords  string
	watchBank       string
	watchNickname   string

	statsVideo string
	statsSince string
	statsLast  int
	statsTop   int
	statsPlain bool

	cuesTarget string
	cuesMerge  bool
	cuesTokens bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "subtutor",
		Short:         "Bilingual subtitle companion for language learning",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runWatchCmd,
	}

	rootCmd.Flags().StringVar(&watchServer, "server", defaultServer, "backend base URL")
	rootCmd.Flags().StringVar(&watchVideo, "video", "", "video URL or id to fetch subtitles for")
	rootCmd.Flags().StringVar(&watchSource, "source", "", "local subtitle file (srt, vtt, json3)")
	rootCmd.Flags().StringVar(&watchTarget, "target", "", "local translation subtitle file paired with --source")
	rootCmd.Flags().BoolVar(&watchMerge, "merge", false, "merge caption fragments into sentences")
	rootCmd.Flags().StringVar(&watchMPVSocket, "mpv-socket", "", "mpv IPC socket (default: built-in stopwatch)")
	rootCmd.Flags().BoolVar(&watchHighlight, "highlight", true, "highlight the spoken word")
	rootCmd.Flags().BoolVar(&watchAutoScroll, "autoscroll", true, "keep the active cue in view")
	rootCmd.Flags().BoolVar(&watchShowSource, "show-source", true, "show source-language text")
	rootCmd.Flags().BoolVar(&watchShowTarget, "show-target", true, "show translations")
	rootCmd.Flags().StringVar(&watchStopWords, "stop-words", "", "extra stop words file, one per line")
	rootCmd.Flags().StringVar(&watchBank, "bank", defaultBank, "word bank for saved words")
	rootCmd.Flags().StringVar(&watchNickname, "nickname", "", "nickname that owns saved words")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newLookupCmd())
	rootCmd.AddCommand(newCuesCmd())

	return rootCmd
}

func runWatchCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "server", &watchServer, fileCfg.Watch.Server)
	applyStringConfig(cmd, "mpv-socket", &watchMPVSocket, fileCfg.Watch.MPVSocket)
	applyBoolConfig(cmd, "highlight", &watchHighlight, fileCfg.Watch.Highlight)
	applyBoolConfig(cmd, "autoscroll", &watchAutoScroll, fileCfg.Watch.AutoScroll)
	applyBoolConfig(cmd, "show-source", &watchShowSource, fileCfg.Watch.ShowSource)
	applyBoolConfig(cmd, "show-target", &watchShowTarget, fileCfg.Watch.ShowTarget)
	applyStringConfig(cmd, "stop-words", &watchStopWords, fileCfg.Watch.StopWords)
	applyStringConfig(cmd, "bank", &watchBank, fileCfg.Watch.Bank)
	applyStringConfig(cmd, "nickname", &watchNickname, fileCfg.Watch.Nickname)

	cfg := model.Config{
		Server:         watchServer,
		Video:          watchVideo,
		SourceFile:     watchSource,
		TargetFile:     watchTarget,
		MergeSentences: watchMerge,
		MPVSocket:      watchMPVSocket,
		Highlight:      watchHighlight,
		AutoScroll:     watchAutoScroll,
		ShowSource:     watchShowSource,
		ShowTarget:     watchShowTarget,
		StopWordsPath:  watchStopWords,
		Bank:           watchBank,
		Nickname:       watchNickname,
	}
	if err := validateConfig(&cfg); err != nil {
		return err
	}

	log, closeLog, err := openLogger(fileCfg.Log)
	if err != nil {
		return err
	}
	defer closeQuietly(closeLog)

	filter, err := wordlist.LoadFilter(cfg.StopWordsPath)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Warn("failed to close db", "err", cerr)
		}
	}()

	ctx := context.Background()
	offset := loadOffset(ctx, st, log)
	if !cmd.Flags().Changed("highlight") && fileCfg.Watch.Highlight == nil {
		if v, ok, err := st.GetSetting(ctx, store.SettingHighlight); err == nil && ok {
			cfg.Highlight = v != "false"
		}
	}

	var player clock.Player
	if cfg.MPVSocket != "" {
		mpv := clock.NewMPV(cfg.MPVSocket)
		defer closeQuietly(mpv)
		player = mpv
	} else {
		player = clock.NewStopwatch(0)
	}

	var backend tui.Backend
	if cfg.Server != "" {
		c, err := client.New(cfg.Server)
		if err != nil {
			return err
		}
		backend = c
	}

	engine := syncer.NewEngine(clock.NewAdapter(player, offset), filter.Keep, log)
	log.Info("starting watcher", "video", cfg.Video, "source", cfg.SourceFile, "mpv", cfg.MPVSocket != "", "offset", offset)
	program := tea.NewProgram(tui.NewModel(cfg, engine, backend, st, log), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func loadOffset(ctx context.Context, st *store.Store, log *slog.Logger) float64 {
	v, ok, err := st.GetSetting(ctx, store.SettingTimeOffset)
	if err != nil {
		log.Warn("failed to load time offset", "err", err)
		return 0
	}
	if !ok {
		return 0
	}
	offset, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn("ignoring stored time offset", "value", v, "err", err)
		return 0
	}
	return offset
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show watch history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsVideo, "video", "", "video id filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsTop, "top", defaultTop, "number of top looked-up words")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the interactive view")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 || statsTop < 0 {
		return fmt.Errorf("--last and --top must be >= 0")
	}
	video := statsVideo
	if video != "" {
		if id, err := client.ExtractVideoID(video); err == nil {
			video = id
		}
	}
	cfg := model.StatsConfig{
		Video: video,
		Since: sinceTime,
		Last:  statsLast,
		Top:   statsTop,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeQuietly(st)

	if statsPlain {
		report, err := stats.BuildReport(cmd.Context(), st, cfg)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		return report.Render(cmd.OutOrStdout(), stats.TerminalWidth())
	}

	program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <word>",
		Short: "Look up a word or phrase",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLookupCmd,
	}
	cmd.Flags().StringVar(&watchServer, "server", defaultServer, "backend base URL")
	return cmd
}

func runLookupCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "server", &watchServer, fileCfg.Watch.Server)
	c, err := client.New(watchServer)
	if err != nil {
		return err
	}
	word := strings.Join(args, " ")
	info, err := c.LookupWord(cmd.Context(), word)
	if err != nil {
		return fmt.Errorf("failed to look up %q: %w", word, err)
	}

	saveLookup(cmd.Context(), cmd.ErrOrStderr(), config.DefaultDBPath(), word)
	return printWordInfo(cmd.OutOrStdout(), info)
}

// saveLookup records word in the history store. Failures are reported to
// errOut and do not fail the lookup.
func saveLookup(ctx context.Context, errOut io.Writer, dbPath, word string) {
	st, err := store.Open(dbPath)
	if err != nil {
		fmt.Fprintf(errOut, "warning: lookup not saved: failed to open store: %v\n", err)
		return
	}
	defer closeQuietly(st)
	if err := st.InsertLookup(ctx, model.Lookup{Word: word, LookedUpAt: time.Now()}); err != nil {
		fmt.Fprintf(errOut, "warning: lookup not saved: %v\n", err)
	}
}

func printWordInfo(w io.Writer, info client.WordInfo) error {
	head := info.Word
	if info.Phonetic != "" {
		head += " " + info.Phonetic
	}
	if info.WordTranslation != "" {
		head += "  " + info.WordTranslation
	}
	if _, err := fmt.Fprintln(w, head); err != nil {
		return err
	}
	for _, meaning := range info.Meanings {
		if _, err := fmt.Fprintf(w, "\n%s\n", meaning.PartOfSpeech); err != nil {
			return err
		}
		for i, def := range meaning.Definitions {
			line := fmt.Sprintf("  %d. %s", i+1, def.Definition)
			if def.DefinitionZh != "" {
				line += " / " + def.DefinitionZh
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
			if def.Example != "" {
				if _, err := fmt.Fprintf(w, "     e.g. %s\n", def.Example); err != nil {
					return err
				}
			}
		}
		if len(meaning.Synonyms) > 0 {
			if _, err := fmt.Fprintf(w, "  synonyms: %s\n", strings.Join(meaning.Synonyms, ", ")); err != nil {
				return err
			}
		}
	}
	return nil
}

func newCuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cues <file>",
		Short: "Print the cues and tokens of a subtitle file",
		Args:  cobra.ExactArgs(1),
		RunE:  runCuesCmd,
	}
	cmd.Flags().StringVar(&cuesTarget, "target", "", "translation file to pair")
	cmd.Flags().BoolVar(&cuesMerge, "merge", false, "merge caption fragments into sentences")
	cmd.Flags().BoolVar(&cuesTokens, "tokens", false, "print clickable tokens")
	cmd.Flags().StringVar(&watchStopWords, "stop-words", "", "extra stop words file, one per line")
	return cmd
}

func runCuesCmd(cmd *cobra.Command, args []string) error {
	cues, err := readCueFile(args[0])
	if err != nil {
		return err
	}
	if cuesMerge {
		cues = subtitle.MergeSentences(cues)
	}
	if cuesTarget != "" {
		target, err := readCueFile(cuesTarget)
		if err != nil {
			return err
		}
		cues = subtitle.PairTargets(cues, target)
	}
	filter, err := wordlist.LoadFilter(watchStopWords)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, cue := range cues {
		if _, err := fmt.Fprintf(out, "%4d  %8.2f  %8.2f  %s\n", i+1, cue.Start, cue.End, cue.Source); err != nil {
			return err
		}
		if cue.Target != "" {
			if _, err := fmt.Fprintf(out, "%26s%s\n", "", cue.Target); err != nil {
				return err
			}
		}
		if cuesTokens {
			tokens := subtitle.ExtractTokens(cue.Source, filter.Keep)
			words := make([]string, len(tokens))
			for j, tok := range tokens {
				words[j] = tok.Text
			}
			if _, err := fmt.Fprintf(out, "%26s[%s]\n", "", strings.Join(words, " ")); err != nil {
				return err
			}
		}
	}
	return nil
}

func readCueFile(path string) ([]model.Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitles: %w", err)
	}
	cues, err := subtitle.Parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cues, nil
}

func openLogger(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	path := config.DefaultLogPath()
	if cfg.Path != nil && *cfg.Path != "" {
		path = *cfg.Path
	}
	level := defaultLogLevel
	if cfg.Level != nil {
		level = *cfg.Level
	}
	format := ""
	if cfg.Format != nil {
		format = *cfg.Format
	}
	log, closer, err := logger.OpenFile(path, format, level)
	if err != nil {
		return nil, nil, err
	}
	return log, closer, nil
}

func closeQuietly(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		// Best-effort close on shutdown.
		_ = err
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# subtutor configuration
# Uncomment a value to enable it. CLI flags override config values.

[watch]
# server = %q   # Backend base URL
# mpv-socket = ""                      # mpv --input-ipc-server path
# highlight = true                     # Highlight the spoken word
# autoscroll = true                    # Keep the active cue in view
# show-source = true                   # Show source-language text
# show-target = true                   # Show translations
# stop-words = ""                      # Extra stop words file
# bank = %q                       # Word bank for saved words
# nickname = ""                        # Nickname that owns saved words

[log]
# level = %q                       # debug, info, warn or error
# format = "text"                      # text or json
# path = ""                            # Defaults to the data directory
`,
		defaultServer,
		defaultBank,
		defaultLogLevel,
	)
}

func validateConfig(cfg *model.Config) error {
	if cfg.SourceFile == "" && cfg.Video == "" {
		return fmt.Errorf("either --video or --source is required")
	}
	if cfg.SourceFile != "" && cfg.Video != "" {
		return fmt.Errorf("--video and --source are mutually exclusive")
	}
	if cfg.TargetFile != "" && cfg.SourceFile == "" {
		return fmt.Errorf("--target requires --source")
	}
	if cfg.Video != "" {
		id, err := client.ExtractVideoID(cfg.Video)
		if err != nil {
			return err
		}
		cfg.Video = id
		if cfg.Server == "" {
			return fmt.Errorf("--server is required with --video")
		}
	}
	return nil
}
