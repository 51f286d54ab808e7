package analysis

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testAnalyzer(cfg Config) *Analyzer {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return New(logger, cfg)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "hello world", NormalizeText("Hello,   WORLD!!"))
	assert.Equal(t, "i m upset", NormalizeText("I'm upset."))
	assert.Equal(t, "", NormalizeText("123 456 !!!"))
}

func TestExtractKeywords_FrequencyOrder(t *testing.T) {
	a := testAnalyzer(DefaultConfig())

	text := NormalizeText("refund refund refund billing billing payment")
	keywords := a.ExtractKeywords(text)

	assert.Equal(t, []string{"refund", "billing", "payment"}, keywords)
}

func TestExtractKeywords_TieBreakIsFirstOccurrence(t *testing.T) {
	a := testAnalyzer(DefaultConfig())

	// zebra appears before apple; both occur twice.
	text := NormalizeText("zebra apple zebra apple mango")
	keywords := a.ExtractKeywords(text)

	assert.Equal(t, []string{"zebra", "apple", "mango"}, keywords)
}

func TestExtractKeywords_Deterministic(t *testing.T) {
	a := testAnalyzer(DefaultConfig())

	text := NormalizeText("billing payment refund charge invoice account login password quality product warranty delivery")
	first := a.ExtractKeywords(text)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, a.ExtractKeywords(text))
	}
}

func TestExtractKeywords_FiltersStopwordsAndShortTokens(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stopwords = StopwordSet([]string{"hello"})
	cfg.MinKeywordLength = 4
	a := testAnalyzer(cfg)

	keywords := a.ExtractKeywords(NormalizeText("hello cat billing"))

	// "hello" is a stopword and "cat" is below the minimum length.
	assert.Equal(t, []string{"billing"}, keywords)
}

func TestExtractKeywords_RespectsMaxKeywords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxKeywords = 2
	a := testAnalyzer(cfg)

	keywords := a.ExtractKeywords(NormalizeText("alpha alpha beta beta gamma delta"))

	assert.Len(t, keywords, 2)
	assert.Equal(t, []string{"alpha", "beta"}, keywords)
}

func TestExtractKeywords_EmptyText(t *testing.T) {
	a := testAnalyzer(DefaultConfig())
	assert.Empty(t, a.ExtractKeywords(""))
}
