// Package transcript composes the post-processing passes applied to raw
// speech-to-text output before it reaches the user.
//
// Two passes are available and both are optional:
//
//  1. Vocabulary correction ([StageVocabulary]): replaces tokens the
//     recogniser likely mis-heard with caller-supplied custom words, using
//     blended Levenshtein/Soundex scoring (see package vocab).
//
//  2. Disfluency filtering ([StageFilter]): removes filler words and
//     collapses stutter runs (see package disfluency).
//
// The passes are independent and may run in either order. Each [Correction]
// records a vocabulary substitution so callers can audit or display it.
//
// Implementations of [Processor] must be safe for concurrent use.
package transcript

import (
	"context"
	"fmt"
)

// Stage names a post-processing pass.
type Stage string

const (
	// StageVocabulary runs custom vocabulary correction.
	StageVocabulary Stage = "vocabulary"

	// StageFilter runs filler and stutter removal.
	StageFilter Stage = "filter"
)

// IsValid reports whether s is a recognised stage.
func (s Stage) IsValid() bool {
	return s == StageVocabulary || s == StageFilter
}

// ParseStages converts names into stages, rejecting unknown and repeated names.
func ParseStages(names []string) ([]Stage, error) {
	stages := make([]Stage, 0, len(names))
	seen := make(map[Stage]bool, len(names))
	for _, n := range names {
		s := Stage(n)
		if !s.IsValid() {
			return nil, fmt.Errorf("transcript: unknown stage %q; valid values: vocabulary, filter", n)
		}
		if seen[s] {
			return nil, fmt.Errorf("transcript: stage %q listed twice", n)
		}
		seen[s] = true
		stages = append(stages, s)
	}
	return stages, nil
}

// DefaultStages is the stage order used when none is configured: correct
// first, then filter.
func DefaultStages() []Stage {
	return []Stage{StageVocabulary, StageFilter}
}

// Correction captures a single token substitution made by the vocabulary stage.
type Correction struct {
	// Index is the token position in the text the vocabulary stage received.
	Index int `json:"index"`

	// Original is the token as it appeared, punctuation included.
	Original string `json:"original"`

	// Corrected is the emitted token.
	Corrected string `json:"corrected"`

	// Word is the custom vocabulary entry that matched.
	Word string `json:"word"`

	// Score is the blended similarity score in [0, 1]; lower is closer.
	Score float64 `json:"score"`
}

// Result is the output of [Processor.Process].
type Result struct {
	// Original is the text as received.
	Original string `json:"original"`

	// Text is the fully post-processed text.
	Text string `json:"text"`

	// Corrections lists vocabulary substitutions in order. Never nil.
	Corrections []Correction `json:"corrections"`

	// FillersRemoved counts filler words deleted by the filter stage.
	FillersRemoved int `json:"fillers_removed"`

	// StuttersCollapsed counts tokens dropped by stutter collapsing.
	StuttersCollapsed int `json:"stutters_collapsed"`
}

// Processor post-processes transcript text.
//
// Implementations must be safe for concurrent use.
type Processor interface {
	// Process runs the configured stages over text. words is the custom
	// vocabulary for this call; an empty list makes the vocabulary stage a
	// no-op. The only error source is ctx being done between stages.
	Process(ctx context.Context, text string, words []string) (*Result, error)
}
