package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"voc-engine/pkg/event"
)

func TestSatisfactionFor(t *testing.T) {
	assert.Equal(t, SatisfactionHigh, SatisfactionFor(&event.SentimentPayload{OverallSentiment: event.SentimentPositive}))
	assert.Equal(t, SatisfactionLow, SatisfactionFor(&event.SentimentPayload{OverallSentiment: event.SentimentNegative}))
	assert.Equal(t, SatisfactionMedium, SatisfactionFor(&event.SentimentPayload{OverallSentiment: event.SentimentNeutral}))
	assert.Equal(t, SatisfactionMedium, SatisfactionFor(&event.SentimentPayload{OverallSentiment: "UNKNOWN"}))
}

func TestChurnRisk_Terms(t *testing.T) {
	// Neutral call, medium satisfaction, no complaint:
	// (1-0)*0.5 + 0.1 = 0.6
	assert.InDelta(t, 0.6, ChurnRisk(0, SatisfactionMedium, IntentInquiry), 1e-9)

	// Happy call: (1-0.9)*0.5 = 0.05
	assert.InDelta(t, 0.05, ChurnRisk(0.9, SatisfactionHigh, IntentCompliment), 1e-9)

	// Angry complaint: (1-(-0.7))*0.5 + 0.3 + 0.2 = 1.35, clamped to 1.
	assert.InDelta(t, 1.0, ChurnRisk(-0.7, SatisfactionLow, IntentComplaint), 1e-9)
}

func TestChurnRisk_Bounds(t *testing.T) {
	scores := []float64{-1, -0.5, 0, 0.5, 1}
	sats := []Satisfaction{SatisfactionLow, SatisfactionMedium, SatisfactionHigh}
	intents := []Intent{IntentComplaint, IntentInquiry, IntentCompliment, IntentRequest, IntentOther}

	for _, score := range scores {
		for _, sat := range sats {
			for _, intent := range intents {
				risk := ChurnRisk(score, sat, intent)
				assert.GreaterOrEqual(t, risk, 0.0)
				assert.LessOrEqual(t, risk, 1.0)
			}
		}
	}
}
