package analysis

import (
	"sort"
	"strings"
)

// DefaultStopwords is the stopword list applied when none is configured.
var DefaultStopwords = []string{
	"the", "a", "an", "and", "or", "but", "if", "then", "else",
	"i", "im", "me", "my", "we", "our", "you", "your", "he", "she",
	"it", "its", "they", "them", "their", "this", "that", "these",
	"those", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "will", "would",
	"can", "could", "should", "to", "of", "in", "on", "at", "by",
	"for", "with", "about", "from", "into", "not", "no", "yes",
	"so", "very", "just", "too", "also", "there", "here", "all",
	"get", "got",
}

// NormalizeText lower-cases the input, replaces every non-alphabetic
// character with a space and collapses runs of whitespace.
func NormalizeText(text string) string {
	lower := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lower))
	lastSpace := true
	for _, r := range lower {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
			lastSpace = false
		} else if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}

// ExtractKeywords returns the most frequent tokens of the normalized
// text, ordered by descending frequency. Tokens shorter than the
// configured minimum or present in the stopword set are discarded.
// Equal-frequency tokens keep their first-occurrence order in the text,
// so the result is fully deterministic.
func (a *Analyzer) ExtractKeywords(normalizedText string) []string {
	counts := make(map[string]int)
	var order []string

	for _, word := range strings.Fields(normalizedText) {
		if len(word) < a.cfg.MinKeywordLength {
			continue
		}
		if _, stop := a.cfg.Stopwords[word]; stop {
			continue
		}
		if _, seen := counts[word]; !seen {
			order = append(order, word)
		}
		counts[word]++
	}

	// Stable sort over first-occurrence order pins the tie-break.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > a.cfg.MaxKeywords {
		order = order[:a.cfg.MaxKeywords]
	}
	return order
}
