package dictionary

import (
	"errors"
	"fmt"
	"strings"
)

// Normalize trims surrounding whitespace from word. Blank words are rejected
// with [ErrInvalidWord]. Casing is preserved: it is what the corrector emits.
func Normalize(word string) (string, error) {
	w := strings.TrimSpace(word)
	if w == "" {
		return "", ErrInvalidWord
	}
	return w, nil
}

// NormalizeAll applies [Normalize] to every word and reports all offending
// positions at once.
func NormalizeAll(words []string) ([]string, error) {
	out := make([]string, 0, len(words))
	var errs []error
	for i, w := range words {
		n, err := Normalize(w)
		if err != nil {
			errs = append(errs, fmt.Errorf("word[%d]: %w", i, err))
			continue
		}
		out = append(out, n)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
