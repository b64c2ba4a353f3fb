package tui

import (
	"strings"

	"docqa/internal/textutil"
)

// highlightBestSentence renders text with the sentence sharing the most
// tokens with query highlighted.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := textutil.Sentences(text)
	if len(textutil.TokenSet(query)) == 0 {
		return strings.Join(sentences, " ")
	}
	best := bestSentence(sentences, query)
	out := make([]string, len(sentences))
	for i, s := range sentences {
		if i == best {
			out[i] = highlightStyle.Render(s)
		} else {
			out[i] = s
		}
	}
	return strings.Join(out, " ")
}

// bestSentence returns the index of the sentence with the highest token
// overlap with query. Ties go to the earliest sentence.
func bestSentence(sentences []string, query string) int {
	qTokens := textutil.TokenSet(query)
	best, bestScore := 0, -1
	for i, s := range sentences {
		if score := textutil.OverlapScore(qTokens, s); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}
