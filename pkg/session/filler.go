package session

import "strings"

// DefaultFillerWords is the vocabulary matched against speech fragments.
var DefaultFillerWords = []string{"umm", "ahh", "like", "oh", "basically", "actually"}

// FillerMatcher finds filler words in transcript fragments.
type FillerMatcher struct {
	words []string
}

// NewFillerMatcher creates a matcher. An empty vocabulary uses DefaultFillerWords.
func NewFillerMatcher(words ...string) *FillerMatcher {
	if len(words) == 0 {
		words = DefaultFillerWords
	}
	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(w)
	}
	return &FillerMatcher{words: lower}
}

// Match returns the vocabulary words contained in text, case-insensitively,
// in vocabulary order. Each word is reported at most once per fragment.
// Matching is by substring, so "oh" also matches inside "john".
func (m *FillerMatcher) Match(text string) []string {
	text = strings.ToLower(text)
	var found []string
	for _, w := range m.words {
		if strings.Contains(text, w) {
			found = append(found, w)
		}
	}
	return found
}

// Words returns a copy of the vocabulary.
func (m *FillerMatcher) Words() []string {
	return append([]string(nil), m.words...)
}
