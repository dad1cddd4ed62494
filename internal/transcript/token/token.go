// Package token holds the small, allocation-light helpers shared by the
// transcript post-processing passes: comparison forms, punctuation affixes and
// case-pattern transfer.
//
// A token is a whitespace-delimited substring of a transcript. Helpers never
// look inside a token for word boundaries; everything that is not a Unicode
// letter at either end counts as punctuation.
package token

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func notLetter(r rune) bool { return !unicode.IsLetter(r) }

// Clean strips leading and trailing non-letters from tok and lowercases the
// rest. The result is only ever used for comparison, never for output.
func Clean(tok string) string {
	return strings.ToLower(strings.TrimFunc(tok, notLetter))
}

// Affixes returns the non-letter runs at the start and end of tok, taken from
// the untouched token. For a token without any letters the whole token is
// returned as prefix and suffix is empty.
func Affixes(tok string) (prefix, suffix string) {
	start := strings.IndexFunc(tok, unicode.IsLetter)
	if start < 0 {
		return tok, ""
	}
	end := strings.LastIndexFunc(tok, unicode.IsLetter)
	_, size := utf8.DecodeRuneInString(tok[end:])
	return tok[:start], tok[end+size:]
}

// ApplyCase transfers the case pattern of original onto replacement:
//
//   - every rune of original is uppercase: the full uppercase of replacement
//   - the first rune of original is uppercase: replacement with its first rune
//     uppercased
//   - otherwise: replacement unchanged
//
// The pattern is read from the whole original token, punctuation included.
func ApplyCase(original, replacement string) string {
	if original == "" {
		return replacement
	}
	if isAllUpper(original) {
		return cases.Upper(language.Und).String(replacement)
	}
	first, _ := utf8.DecodeRuneInString(original)
	if !unicode.IsUpper(first) {
		return replacement
	}
	return upperFirst(replacement)
}

// IsStutterEligible reports whether tok is short enough to be a stutter
// fragment: its lowercase form has one or two runes, all of them letters.
func IsStutterEligible(tok string) bool {
	lower := strings.ToLower(tok)
	n := utf8.RuneCountInString(lower)
	if n == 0 || n > 2 {
		return false
	}
	return strings.IndexFunc(lower, notLetter) < 0
}

func isAllUpper(s string) bool {
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// upperFirst uppercases only the first rune of s. Runes whose uppercase form
// expands to several runes (ß -> SS) keep just the first of them.
func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	up := cases.Upper(language.Und).String(s[:size])
	ur, _ := utf8.DecodeRuneInString(up)
	if ur == r {
		return s
	}
	return string(ur) + s[size:]
}
