package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "   ", nil},
		{"no punctuation", "just a fragment", []string{"just a fragment"}},
		{"two sentences", "First one. Second one!", []string{"First one.", "Second one!"}},
		{"trailing fragment", "Done? not quite", []string{"Done?", "not quite"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentences(tt.in))
		})
	}
}

func TestContentTokensDropsStopwords(t *testing.T) {
	assert.Equal(t, []string{"quick", "fox", "isn't", "here"}, ContentTokens("The quick fox isn't here"))
}

func TestOverlapScoreCountsDistinctTokens(t *testing.T) {
	q := TokenSet("fox river")
	assert.Equal(t, 2, OverlapScore(q, "The fox crossed the river, fox again."))
	assert.Equal(t, 0, OverlapScore(q, "Nothing relevant."))
}
