// Package model defines shared data structures.
package model

import "time"

// Config defines watch settings.
type Config struct {
	Server         string
	Video          string
	SourceFile     string
	TargetFile     string
	MergeSentences bool
	MPVSocket      string
	Highlight      bool
	AutoScroll     bool
	ShowSource     bool
	ShowTarget     bool
	StopWordsPath  string
	Bank           string
	Nickname       string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Video string
	Since *time.Time
	Last  int
	Top   int
}

// Cue is one bilingual subtitle entry. Times are in seconds.
type Cue struct {
	Start  float64
	End    float64
	Source string
	Target string
}

// Duration returns End - Start.
func (c Cue) Duration() float64 {
	return c.End - c.Start
}

// PartialCue is an incremental translation for an existing cue.
type PartialCue struct {
	Start  float64
	Source string
	Target string
}

// Token is a clickable word extracted from a cue's source text.
// Start and End are rune offsets into the source text.
type Token struct {
	Text  string
	Start int
	End   int
	Width int
}

// SyncState is the active cue and token. -1 means none.
type SyncState struct {
	CueIndex   int
	TokenIndex int
}

// NoSync is the initial sync state.
var NoSync = SyncState{CueIndex: -1, TokenIndex: -1}

// WatchSession records one viewing session.
type WatchSession struct {
	ID         string
	VideoID    string
	StartedAt  time.Time
	EndedAt    time.Time
	CuesSeen   int
	Lookups    int
	DurationMs int64
}

// Lookup records a word looked up while watching.
type Lookup struct {
	Word       string
	VideoID    string
	CueStart   float64
	LookedUpAt time.Time
}

// WordAggregate counts lookups for one word.
type WordAggregate struct {
	Word   string
	Count  int
	LastAt time.Time
}
