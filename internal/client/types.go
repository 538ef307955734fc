package client

import "github.com/verte-zerg/subtutor/internal/model"

// SubtitleItem is one cue as served by the backend.
type SubtitleItem struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	English string  `json:"english"`
	Chinese string  `json:"chinese"`
}

// SubtitleResponse is the body of GET /api/subtitles/{id}.
type SubtitleResponse struct {
	VideoID          string         `json:"video_id"`
	Subtitles        []SubtitleItem `json:"subtitles"`
	NeedsTranslation bool           `json:"needs_translation"`
	ProgressKey      string         `json:"translation_progress_key,omitempty"`
	HasChinese       int            `json:"has_chinese,omitempty"`
	Total            int            `json:"total,omitempty"`
}

// Cues converts the response into store cues.
func (r SubtitleResponse) Cues() []model.Cue {
	out := make([]model.Cue, len(r.Subtitles))
	for i, s := range r.Subtitles {
		out[i] = model.Cue{Start: s.Start, End: s.End, Source: s.English, Target: s.Chinese}
	}
	return out
}

// TranslationItem is one streamed translation.
type TranslationItem struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	English string  `json:"english"`
	Chinese string  `json:"chinese"`
}

// Partial converts the item into a store update.
func (t TranslationItem) Partial() model.PartialCue {
	return model.PartialCue{Start: t.Start, Source: t.English, Target: t.Chinese}
}

// TranslationProgress is the body of GET /api/translation-progress/{key}.
type TranslationProgress struct {
	NewItems   []TranslationItem `json:"new_items"`
	LastIndex  int               `json:"last_index"`
	Completed  bool              `json:"completed"`
	Current    int               `json:"current"`
	Total      int               `json:"total"`
	Translated int               `json:"translated"`
	Cached     int               `json:"cached"`
	Elapsed    float64           `json:"elapsed"`
}

// Percent returns completion as 0-100.
func (p TranslationProgress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return p.Current * 100 / p.Total
}

// Definition is one dictionary sense.
type Definition struct {
	Definition   string `json:"definition"`
	DefinitionZh string `json:"definitionZh"`
	Example      string `json:"example"`
	ExampleZh    string `json:"exampleZh"`
}

// Meaning groups definitions by part of speech.
type Meaning struct {
	PartOfSpeech string       `json:"partOfSpeech"`
	Definitions  []Definition `json:"definitions"`
	Synonyms     []string     `json:"synonyms,omitempty"`
}

// WordInfo is the body of GET /api/word/{text}.
type WordInfo struct {
	Word            string    `json:"word"`
	WordTranslation string    `json:"wordTranslation"`
	Phonetic        string    `json:"phonetic"`
	Meanings        []Meaning `json:"meanings"`
	IsPhrase        bool      `json:"isPhrase"`
}

type addWordRequest struct {
	Word     string    `json:"word"`
	WordInfo *WordInfo `json:"word_info,omitempty"`
	Nickname string    `json:"nickname"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}
