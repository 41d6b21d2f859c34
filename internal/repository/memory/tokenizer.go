package memory

// Tokenization policy for the in-memory lexical index: lowercase, split on
// any non-alphanumeric rune, drop tokens shorter than two runes and English
// stop words. No stemming. Deterministic for a given text.

import "strings"

// stopWords contains common English words excluded from lexical matching
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "with": true,
	"this": true, "are": true, "but": true, "not": true, "you": true,
	"all": true, "was": true, "his": true, "her": true, "from": true,
	"they": true, "have": true, "had": true, "been": true, "were": true,
	"will": true, "would": true, "could": true, "should": true, "shall": true,
	"them": true, "which": true, "there": true, "their": true, "what": true,
	"when": true, "then": true, "than": true, "into": true, "about": true,
	"just": true, "like": true, "know": true, "yeah": true, "okay": true,
}

// Tokenize splits text into searchable terms
func Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(c rune) bool {
		return !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'))
	})

	filtered := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) >= 2 && !stopWords[word] {
			filtered = append(filtered, word)
		}
	}
	return filtered
}

// termFrequencies counts occurrences of each term in text
func termFrequencies(text string) map[string]int {
	terms := Tokenize(text)
	freq := make(map[string]int, len(terms))
	for _, t := range terms {
		freq[t]++
	}
	return freq
}
