package search

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kljensen/snowball/english"
)

// wordRe matches runs of word characters at least three runes long.
// The class is the whole word class, so a greedy match always spans a maximal run.
var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]{3,}`)

// DefaultStopwords returns the English function words dropped before stemming.
func DefaultStopwords() []string {
	return []string{
		"the", "is", "to", "a", "an", "and", "in", "of", "on", "for", "with",
		"at", "by", "from", "up", "out", "into", "over", "about", "this", "that",
		"as", "it", "be", "are", "was", "were", "can", "we", "you", "i", "my",
		"your", "our", "their", "they", "he", "she", "me", "do", "does", "did",
		"have", "has", "had",
	}
}

// TokenSet is an unordered set of stemmed tokens.
type TokenSet map[string]struct{}

// Contains reports whether tok is in the set.
func (s TokenSet) Contains(tok string) bool {
	_, ok := s[tok]
	return ok
}

// Len returns the number of distinct tokens.
func (s TokenSet) Len() int {
	return len(s)
}

// Intersect returns the size of the intersection of s and other.
func (s TokenSet) Intersect(other TokenSet) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			n++
		}
	}
	return n
}

// Sorted returns the tokens in lexical order.
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for tok := range s {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// Normalizer turns raw text into a TokenSet. Pipeline: lower -> extract -> stop filter -> stem.
type Normalizer struct {
	stop map[string]struct{}
}

// NewNormalizer builds a normalizer that drops the given stopwords.
// A nil list means DefaultStopwords.
func NewNormalizer(stopwords []string) *Normalizer {
	if stopwords == nil {
		stopwords = DefaultStopwords()
	}
	stop := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stop[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Normalizer{stop: stop}
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize runs text through the default normalizer.
func Normalize(text string) TokenSet {
	return defaultNormalizer.Normalize(text)
}

// Normalize returns the set of stems of the content words in text.
// It never fails; empty input yields an empty set.
func (n *Normalizer) Normalize(text string) TokenSet {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	out := make(TokenSet, len(words))
	for _, w := range words {
		if _, bad := n.stop[w]; bad {
			continue
		}
		s := stem(w)
		if s == "" {
			continue
		}
		out[s] = struct{}{}
	}
	return out
}

// internal stemmer
func stem(w string) string { return english.Stem(w, true) }
