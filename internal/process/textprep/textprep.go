// Package textprep normalizes raw review text before vectorization.
package textprep

import (
	"regexp"
	"strings"
)

var (
	urlRe      = regexp.MustCompile(`https?://\S+|www\.\S+`)
	emailRe    = regexp.MustCompile(`\S+@\S+`)
	emojiRe    = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F1E0}-\x{1F1FF}\x{2702}-\x{27B0}\x{24C2}-\x{1F251}]`)
	nonWordRe  = regexp.MustCompile(`[^a-z0-9\s.,!?']`)
	multiSpace = regexp.MustCompile(`\s+`)
)

// Clean lowercases text and strips URLs, emails, emoji, and special
// characters, keeping basic punctuation. Whitespace runs collapse to a
// single space.
func Clean(text string) string {
	text = strings.ToLower(text)
	text = urlRe.ReplaceAllString(text, " ")
	text = emailRe.ReplaceAllString(text, " ")
	text = emojiRe.ReplaceAllString(text, " ")
	text = nonWordRe.ReplaceAllString(text, " ")
	text = multiSpace.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// Tokenize splits cleaned text on whitespace, stripping punctuation from
// token edges. Empty tokens are dropped.
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))

	for _, f := range fields {
		f = strings.Trim(f, ".,!?'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}

	return tokens
}

// RemoveStopwords drops stopwords and tokens of two characters or fewer.
func RemoveStopwords(tokens []string) []string {
	kept := make([]string, 0, len(tokens))

	for _, tok := range tokens {
		if len(tok) <= 2 {
			continue
		}

		if _, ok := stopwords[tok]; ok {
			continue
		}

		kept = append(kept, tok)
	}

	return kept
}

// Normalize runs the full preparation chain and returns the surviving
// tokens joined by single spaces.
func Normalize(text string) string {
	return strings.Join(RemoveStopwords(Tokenize(Clean(text))), " ")
}
