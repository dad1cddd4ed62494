// Package vocab replaces words a speech recogniser most likely mis-heard with
// caller-supplied canonical spellings.
//
// Each whitespace-delimited token is cleaned (surrounding punctuation stripped,
// lowercased) and scored against every vocabulary entry with
// [phonetic.Score]. The lowest score strictly below the threshold wins; the
// replacement takes the original token's case pattern and punctuation.
// Tokens are re-joined with single spaces, so runs of whitespace in the input
// are not preserved.
package vocab

import (
	"strings"

	"github.com/MrWong99/scribeclean/internal/transcript/phonetic"
	"github.com/MrWong99/scribeclean/internal/transcript/token"
)

// Substitution records a single token replaced by [Corrector.Apply].
type Substitution struct {
	// Index is the token position in the input (0-based).
	Index int

	// Original is the token as it appeared in the input, punctuation included.
	Original string

	// Replacement is the emitted token, punctuation included.
	Replacement string

	// Word is the vocabulary entry that matched.
	Word string

	// Score is the blended similarity score of the match.
	Score float64
}

// Corrector applies a fixed vocabulary. It is immutable after construction
// and safe for concurrent use.
type Corrector struct {
	matcher *phonetic.Matcher
	vocab   *phonetic.Vocabulary
}

// New returns a [Corrector] for words. opts configure the underlying
// [phonetic.Matcher]; most callers only pass [phonetic.WithThreshold].
func New(words []string, opts ...phonetic.Option) *Corrector {
	return &Corrector{
		matcher: phonetic.New(opts...),
		vocab:   phonetic.Prepare(words),
	}
}

// Apply corrects text and returns the result together with every substitution
// made. With an empty vocabulary text is returned untouched and no
// substitutions are reported.
func (c *Corrector) Apply(text string) (string, []Substitution) {
	if c.vocab.Len() == 0 {
		return text, nil
	}

	words := strings.Fields(text)
	var subs []Substitution
	for i, w := range words {
		cand, ok := c.matcher.Best(token.Clean(w), c.vocab)
		if !ok {
			continue
		}
		prefix, suffix := token.Affixes(w)
		repl := prefix + token.ApplyCase(w, cand.Word) + suffix
		subs = append(subs, Substitution{
			Index:       i,
			Original:    w,
			Replacement: repl,
			Word:        cand.Word,
			Score:       cand.Score,
		})
		words[i] = repl
	}
	return strings.Join(words, " "), subs
}

// ApplyCustomWords corrects text against customWords, accepting only matches
// whose score is strictly below threshold. It never fails; an empty
// customWords returns text unchanged.
func ApplyCustomWords(text string, customWords []string, threshold float64) string {
	if len(customWords) == 0 {
		return text
	}
	out, _ := New(customWords, phonetic.WithThreshold(threshold)).Apply(text)
	return out
}
