package chunker

import (
	"strings"

	"docqa/internal/textutil"
)

// SentenceSplitter splits text into windows of whole sentences with overlap.
// It satisfies textsplitter.TextSplitter.
type SentenceSplitter struct {
	sentencesPerChunk int
	overlapSentences  int
}

func NewSentenceSplitter(sentencesPerChunk, overlapSentences int) *SentenceSplitter {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceSplitter{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
	}
}

func (s *SentenceSplitter) SplitText(text string) ([]string, error) {
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}
	var chunks []string
	i := 0
	for i < len(sentences) {
		end := i + s.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}
		i = end - s.overlapSentences
	}
	return chunks, nil
}
