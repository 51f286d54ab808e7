package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voc-engine/pkg/event"
)

// Angry billing call: complaint intent, Billing topic, low satisfaction
// and high churn risk with the urgent action items present.
func TestAnalyze_AngryBillingCall(t *testing.T) {
	a := testAnalyzer(DefaultConfig())

	sentiment := &event.SentimentPayload{
		CallID:           "call-1",
		OverallSentiment: event.SentimentNegative,
		SentimentScore:   -0.7,
	}

	insight := a.Analyze(
		"I'm very disappointed with the incorrect charge on my bill. I need a refund immediately.",
		sentiment,
	)
	require.NotNil(t, insight)

	assert.Equal(t, IntentComplaint, insight.PrimaryIntent)
	assert.Contains(t, insight.Topics, "Billing")
	assert.Equal(t, SatisfactionLow, insight.CustomerSatisfaction)
	assert.GreaterOrEqual(t, insight.PredictedChurnRisk, 0.7)
	assert.Contains(t, insight.ActionableItems, "URGENT: Contact customer within 24 hours to address concerns")
	assert.Contains(t, insight.ActionableItems, "Review billing accuracy")
	assert.Contains(t, insight.Summary, "complaint")
	assert.Contains(t, insight.Summary, "HIGH churn risk")
}

// Happy call: compliment intent, high satisfaction, low churn risk.
func TestAnalyze_HappyCall(t *testing.T) {
	a := testAnalyzer(DefaultConfig())

	sentiment := &event.SentimentPayload{
		CallID:           "call-2",
		OverallSentiment: event.SentimentPositive,
		SentimentScore:   0.9,
	}

	insight := a.Analyze(
		"Thank you, this was a wonderful experience, I love your service!",
		sentiment,
	)
	require.NotNil(t, insight)

	assert.Equal(t, IntentCompliment, insight.PrimaryIntent)
	assert.Equal(t, SatisfactionHigh, insight.CustomerSatisfaction)
	assert.Less(t, insight.PredictedChurnRisk, 0.4)
	assert.Contains(t, insight.ActionableItems, "Share positive feedback with team")
}

func TestAnalyze_NoTopicMatchFallsBack(t *testing.T) {
	a := testAnalyzer(DefaultConfig())

	sentiment := &event.SentimentPayload{
		CallID:           "call-3",
		OverallSentiment: event.SentimentNeutral,
		SentimentScore:   0,
	}

	insight := a.Analyze("The sky looked lovely during my afternoon walk.", sentiment)

	assert.Equal(t, []string{FallbackTopic}, insight.Topics)
}

func TestAnalyze_IsDeterministic(t *testing.T) {
	a := testAnalyzer(DefaultConfig())

	sentiment := &event.SentimentPayload{
		CallID:           "call-4",
		OverallSentiment: event.SentimentNegative,
		SentimentScore:   -0.3,
	}
	text := "My account login is broken and the error keeps happening, please fix the technical issue."

	first := a.Analyze(text, sentiment)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, a.Analyze(text, sentiment))
	}
}
