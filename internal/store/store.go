// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/subtutor/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Setting keys.
const (
	SettingTimeOffset = "time_offset"
	SettingHighlight  = "word_highlight"
)

// timeLayout is fixed-width UTC so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Store wraps SQLite access for settings and practice history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS watch_sessions (
			id TEXT PRIMARY KEY,
			video_id TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			cues_seen INTEGER NOT NULL,
			lookups INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS lookups (
			id INTEGER PRIMARY KEY,
			word TEXT NOT NULL,
			video_id TEXT NOT NULL,
			cue_start REAL NOT NULL,
			looked_up_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_watch_sessions_ended_at ON watch_sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_lookups_word ON lookups(word);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetSetting returns a stored setting. ok is false when the key is absent.
func (s *Store) GetSetting(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetSetting upserts a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// InsertWatchSession stores a finished session and returns its id.
func (s *Store) InsertWatchSession(ctx context.Context, ws model.WatchSession) (string, error) {
	if ws.ID == "" {
		ws.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO watch_sessions (id, video_id, started_at, ended_at, cues_seen, lookups, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ws.ID,
		ws.VideoID,
		formatTime(ws.StartedAt),
		formatTime(ws.EndedAt),
		ws.CuesSeen,
		ws.Lookups,
		ws.DurationMs,
	)
	if err != nil {
		return "", err
	}
	return ws.ID, nil
}

// InsertLookup records a looked-up word.
func (s *Store) InsertLookup(ctx context.Context, l model.Lookup) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lookups (word, video_id, cue_start, looked_up_at) VALUES (?, ?, ?, ?)`,
		strings.ToLower(l.Word),
		l.VideoID,
		l.CueStart,
		formatTime(l.LookedUpAt),
	)
	return err
}

func filterClauses(cfg model.StatsConfig, timeCol string) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Video != "" {
		clauses = append(clauses, "video_id = ?")
		args = append(args, cfg.Video)
	}
	if cfg.Since != nil {
		clauses = append(clauses, timeCol+" >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	return strings.Join(clauses, " AND "), args
}

// ListWatchSessions returns sessions filtered by stats config, oldest first.
func (s *Store) ListWatchSessions(ctx context.Context, cfg model.StatsConfig) ([]model.WatchSession, error) {
	where, args := filterClauses(cfg, "ended_at")
	query := fmt.Sprintf(`SELECT id, video_id, started_at, ended_at, cues_seen, lookups, duration_ms
		FROM watch_sessions
		WHERE %s
		ORDER BY ended_at ASC`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.WatchSession
	for rows.Next() {
		var ws model.WatchSession
		var startedAt, endedAt string
		if err := rows.Scan(&ws.ID, &ws.VideoID, &startedAt, &endedAt, &ws.CuesSeen, &ws.Lookups, &ws.DurationMs); err != nil {
			return nil, err
		}
		if ws.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if ws.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// TopLookups returns the most looked-up words, most frequent first.
func (s *Store) TopLookups(ctx context.Context, cfg model.StatsConfig) ([]model.WordAggregate, error) {
	where, args := filterClauses(cfg, "looked_up_at")
	query := fmt.Sprintf(`SELECT word, COUNT(*) AS n, MAX(looked_up_at) AS last_at
		FROM lookups
		WHERE %s
		GROUP BY word
		ORDER BY n DESC, word ASC`, where)
	if cfg.Top > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Top)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.WordAggregate
	for rows.Next() {
		var agg model.WordAggregate
		var lastAt string
		if err := rows.Scan(&agg.Word, &agg.Count, &lastAt); err != nil {
			return nil, err
		}
		if agg.LastAt, err = time.Parse(time.RFC3339Nano, lastAt); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
