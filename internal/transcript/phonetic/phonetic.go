// Package phonetic scores how likely a transcribed word is a mis-hearing of a
// custom vocabulary entry.
//
// The score blends two signals:
//
//  1. Normalised Levenshtein distance: the rune-level edit distance divided
//     by the longer of the two words, in [0, 1] where 0 is identical.
//
//  2. Soundex agreement: when both words reduce to the same Soundex code the
//     distance is multiplied by [PhoneticBoost], so a word that sounds right
//     but is spelled quite differently can still qualify.
//
// A [Matcher] applies the blended score to a prepared [Vocabulary] and keeps
// the lowest-scoring entry that falls strictly below its threshold. Ties keep
// the entry that appears first in the vocabulary.
package phonetic

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// PhoneticBoost is the factor applied to the normalised edit distance of a
// pair of words that share a Soundex code.
const PhoneticBoost = 0.3

const (
	defaultThreshold      = 0.18
	defaultMaxWordLength  = 50
	defaultMaxLengthDelta = 5
)

// NormalizedDistance returns the Levenshtein distance between a and b divided
// by the rune length of the longer word. Two empty words score 1.0 so that
// nothing ever matches on emptiness alone.
func NormalizedDistance(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1.0
	}
	return float64(matchr.Levenshtein(a, b)) / float64(maxLen)
}

// SoundsAlike reports whether a and b share a non-empty Soundex code.
func SoundsAlike(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	ca := matchr.Soundex(a)
	return ca != "" && ca == matchr.Soundex(b)
}

// Score returns the blended similarity score of a and b. Lower is better.
func Score(a, b string) float64 {
	d := NormalizedDistance(a, b)
	if SoundsAlike(a, b) {
		return d * PhoneticBoost
	}
	return d
}

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithThreshold sets the exclusive upper bound a score must stay under to be
// accepted. Values <= 0 disable matching entirely. Default: 0.18.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.threshold = threshold
	}
}

// WithMaxWordLength sets the rune length above which a word is never matched.
// Default: 50.
func WithMaxWordLength(n int) Option {
	return func(m *Matcher) {
		m.maxWordLength = n
	}
}

// WithMaxLengthDelta sets the largest rune-length difference between a word
// and a vocabulary entry that is still scored. Default: 5.
func WithMaxLengthDelta(n int) Option {
	return func(m *Matcher) {
		m.maxLengthDelta = n
	}
}

// Matcher selects the best vocabulary entry for a cleaned word.
// A Matcher is read-only after construction and safe for concurrent use.
type Matcher struct {
	threshold      float64
	maxWordLength  int
	maxLengthDelta int
}

// New returns a [Matcher] configured with the supplied options.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		threshold:      defaultThreshold,
		maxWordLength:  defaultMaxWordLength,
		maxLengthDelta: defaultMaxLengthDelta,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Threshold returns the configured acceptance threshold.
func (m *Matcher) Threshold() float64 { return m.threshold }

// MaxWordLength returns the rune length above which words are skipped.
func (m *Matcher) MaxWordLength() int { return m.maxWordLength }

// Vocabulary is a custom word list with its lowercase projection computed once.
// It is immutable and may be shared between goroutines.
type Vocabulary struct {
	words   []string
	lower   []string
	lengths []int
}

// Prepare builds a [Vocabulary] from words. Order and duplicates are kept.
func Prepare(words []string) *Vocabulary {
	v := &Vocabulary{
		words:   words,
		lower:   make([]string, len(words)),
		lengths: make([]int, len(words)),
	}
	for i, w := range words {
		v.lower[i] = strings.ToLower(w)
		v.lengths[i] = utf8.RuneCountInString(v.lower[i])
	}
	return v
}

// Len returns the number of entries in v.
func (v *Vocabulary) Len() int { return len(v.words) }

// Candidate is the best-scoring vocabulary entry for a word.
type Candidate struct {
	// Word is the vocabulary entry in its original casing.
	Word string

	// Index is the position of Word in the vocabulary.
	Index int

	// Score is the blended score, in [0, 1].
	Score float64
}

// Best scans v for the entry with the lowest score against cleaned, which
// must already be lowercased and stripped of surrounding punctuation.
//
// Entries whose rune length differs from cleaned by more than the configured
// delta are never scored. Only scores strictly below the threshold qualify;
// among equal scores the first entry wins. ok is false when nothing qualifies,
// when cleaned is empty, or when it exceeds the maximum word length.
func (m *Matcher) Best(cleaned string, v *Vocabulary) (c Candidate, ok bool) {
	if cleaned == "" || v == nil || len(v.words) == 0 {
		return Candidate{}, false
	}
	n := utf8.RuneCountInString(cleaned)
	if n > m.maxWordLength {
		return Candidate{}, false
	}

	best := Candidate{Index: -1}
	for i, lower := range v.lower {
		if abs(n-v.lengths[i]) > m.maxLengthDelta {
			continue
		}
		score := Score(cleaned, lower)
		if score < m.threshold && (best.Index < 0 || score < best.Score) {
			best = Candidate{Word: v.words[i], Index: i, Score: score}
		}
	}
	if best.Index < 0 {
		return Candidate{}, false
	}
	return best, true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
