package search

import (
	"strings"
	"unicode"
)

// Tokenize splits text into lowercase tokens. A token is a maximal run of
// letters and digits; everything else separates tokens. Tokens of length
// one or less carry no signal and are dropped.
func Tokenize(text string) []string {
	var tokens []string
	var current []rune

	flush := func() {
		if len(current) > 1 {
			tokens = append(tokens, string(current))
		}
		current = current[:0]
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current = append(current, r)
			continue
		}
		flush()
	}
	flush()

	return tokens
}

// suffixes are stripped in order, longest first. Covers common English and
// Swedish inflections; the remainder must keep at least three runes.
var suffixes = []struct {
	strip   string
	replace string
}{
	{"ernas", ""},
	{"arnas", ""},
	{"ornas", ""},
	{"erna", ""},
	{"arna", ""},
	{"orna", ""},
	{"ande", ""},
	{"ende", ""},
	{"ingen", "ing"},
	{"ings", "ing"},
	{"ing", ""},
	{"ies", "y"},
	{"tion", "t"},
	{"erar", "era"},
	{"ade", "a"},
	{"ed", ""},
	{"er", ""},
	{"es", ""},
	{"en", ""},
	{"ar", ""},
	{"or", ""},
	{"ly", ""},
	{"s", ""},
}

// StemToken applies light suffix stripping to a single token.
// Short tokens are returned unchanged.
func StemToken(token string) string {
	runes := []rune(token)
	for _, s := range suffixes {
		stripLen := len([]rune(s.strip))
		if len(runes) < stripLen+3 {
			continue
		}
		if strings.HasSuffix(token, s.strip) {
			return string(runes[:len(runes)-stripLen]) + s.replace
		}
	}
	return token
}

// StemTokens stems each token, preserving order and duplicates.
func StemTokens(tokens []string) []string {
	if tokens == nil {
		return nil
	}
	stemmed := make([]string, len(tokens))
	for i, token := range tokens {
		stemmed[i] = StemToken(token)
	}
	return stemmed
}

// NormalizePhrase collapses whitespace and lowercases the text. Used as the
// literal fallback query when tokenization yields nothing.
func NormalizePhrase(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
