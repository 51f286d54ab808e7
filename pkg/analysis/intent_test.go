package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"voc-engine/pkg/event"
)

func neutralSentiment() *event.SentimentPayload {
	return &event.SentimentPayload{OverallSentiment: event.SentimentNeutral}
}

func TestClassifyIntent_Complaint(t *testing.T) {
	text := NormalizeText("This is a terrible problem, I am very unhappy and upset")
	intent := ClassifyIntent(text, neutralSentiment())
	assert.Equal(t, IntentComplaint, intent)
}

func TestClassifyIntent_NegativeSentimentBonus(t *testing.T) {
	// One complaint term against two inquiry terms; the +2 negative
	// sentiment bonus still tips it to complaint.
	text := NormalizeText("I have a question, please explain the mistake")
	sentiment := &event.SentimentPayload{OverallSentiment: event.SentimentNegative}
	assert.Equal(t, IntentComplaint, ClassifyIntent(text, sentiment))
}

func TestClassifyIntent_PositiveSentimentBonus(t *testing.T) {
	text := NormalizeText("everything went fine today")
	sentiment := &event.SentimentPayload{OverallSentiment: event.SentimentPositive}
	// No compliment terms in the text, but the bonus alone scores 2.
	assert.Equal(t, IntentCompliment, ClassifyIntent(text, sentiment))
}

func TestClassifyIntent_AllZeroIsOther(t *testing.T) {
	text := NormalizeText("the weather is nice today")
	assert.Equal(t, IntentOther, ClassifyIntent(text, neutralSentiment()))
}

func TestClassifyIntent_TieIsOther(t *testing.T) {
	// Exactly one complaint term and one compliment term, neutral
	// sentiment: a genuine tie must not be resolved by rule order.
	text := NormalizeText("the broken part but great color")
	assert.Equal(t, IntentOther, ClassifyIntent(text, neutralSentiment()))
}

func TestClassifyIntent_EmptyText(t *testing.T) {
	assert.Equal(t, IntentOther, ClassifyIntent("", neutralSentiment()))
}
