// Package disfluency strips spontaneous-speech noise from transcripts: filler
// words ("um", "uh", "hmm", ...) and stutter runs of very short words
// ("wh wh wh why").
//
// The filler patterns are compiled once per process on first use and never
// mutated afterwards, so all functions here are safe for concurrent use.
package disfluency

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"

	"github.com/MrWong99/scribeclean/internal/transcript/token"
)

// fillerWords is the fixed list of filler lexemes removed by [Filter].
var fillerWords = []string{
	"uh", "um", "uhm", "umm", "uhh", "uhhh", "ah", "eh", "hmm", "hm", "mmm", "mm", "mh", "ha",
	"ehh",
}

// minStutterRun is the shortest run of repeated short tokens that is
// collapsed. Two repetitions ("no no") are legitimate speech.
const minStutterRun = 3

// fillerPatterns matches each filler as a whole word, case-insensitively,
// together with one optional trailing comma or period. regexp2 is used because
// its \b honours Unicode letters, so "äh" or "umé" are not split mid-word.
var fillerPatterns = sync.OnceValue(func() []*regexp2.Regexp {
	pats := make([]*regexp2.Regexp, len(fillerWords))
	for i, w := range fillerWords {
		pats[i] = regexp2.MustCompile(`\b`+regexp2.Escape(w)+`\b[,.]?`, regexp2.IgnoreCase)
	}
	return pats
})

var multiSpace = regexp.MustCompile(`\s{2,}`)

// Fillers returns a copy of the filler word list.
func Fillers() []string {
	return slices.Clone(fillerWords)
}

// Result is the outcome of [Filter].
type Result struct {
	// Text is the cleaned transcript.
	Text string

	// FillersRemoved counts filler occurrences deleted.
	FillersRemoved int

	// StuttersCollapsed counts tokens dropped while collapsing stutter runs.
	StuttersCollapsed int
}

// Filter removes fillers, collapses stutters, squeezes whitespace and trims
// the result. It never fails; text made only of fillers and stutters reduces
// to the empty string.
func Filter(text string) Result {
	var res Result

	for _, re := range fillerPatterns() {
		n := 0
		out, err := re.ReplaceFunc(text, func(regexp2.Match) string {
			n++
			return ""
		}, -1, -1)
		if err != nil {
			// Only reachable with a match timeout, which is never set.
			slog.Warn("disfluency: filler pattern failed", "pattern", re.String(), "err", err)
			continue
		}
		text = out
		res.FillersRemoved += n
	}

	text, res.StuttersCollapsed = collapseStutters(text)
	text = multiSpace.ReplaceAllString(text, " ")
	res.Text = strings.TrimSpace(text)
	return res
}

// FilterTranscriptionOutput returns text with filler words and stutter
// artifacts removed and whitespace normalised.
func FilterTranscriptionOutput(text string) string {
	return Filter(text).Text
}

// collapseStutters replaces every run of three or more case-insensitively
// equal, stutter-eligible tokens with the run's first token. Tokens are
// re-joined with single spaces. Text without tokens is returned as is.
func collapseStutters(text string) (string, int) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text, 0
	}

	out := make([]string, 0, len(words))
	dropped := 0
	for i := 0; i < len(words); {
		w := words[i]
		out = append(out, w)
		if !token.IsStutterEligible(w) {
			i++
			continue
		}

		lower := strings.ToLower(w)
		run := 1
		for i+run < len(words) && strings.ToLower(words[i+run]) == lower {
			run++
		}
		if run >= minStutterRun {
			dropped += run - 1
			i += run
		} else {
			i++
		}
	}
	return strings.Join(out, " "), dropped
}
