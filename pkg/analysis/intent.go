package analysis

import (
	"strings"

	"voc-engine/pkg/event"
)

// sentimentBonus is added to the matching intent when the overall
// sentiment label points the same way.
const sentimentBonus = 2

// intentRule maps an intent to the terms scored against the text.
type intentRule struct {
	Intent Intent
	Terms  []string
}

// intentRules is evaluated in declaration order.
var intentRules = []intentRule{
	{IntentComplaint, []string{
		"problem", "issue", "complaint", "complain", "unhappy", "dissatisfied",
		"disappointed", "frustrat", "terrible", "awful", "worst", "unacceptable",
		"angry", "upset", "wrong", "mistake", "error", "broken", "fail",
	}},
	{IntentInquiry, []string{
		"question", "ask", "wondering", "curious", "information", "how", "what",
		"when", "where", "why", "explain", "tell", "know", "understand", "help",
	}},
	{IntentCompliment, []string{
		"great", "excellent", "wonderful", "amazing", "fantastic", "perfect",
		"love", "thank", "appreciate", "satisfied", "happy", "pleased", "impressed",
	}},
	{IntentRequest, []string{
		"need", "want", "would like", "require", "request", "please", "can you",
		"could you", "help me", "assist", "support", "service", "order", "purchase",
	}},
}

// ClassifyIntent scores each intent by the number of its terms present
// in the normalized text and applies the sentiment bonus. The unique
// highest-scoring intent wins. An all-zero score or a tie between
// distinct top scorers yields IntentOther; ambiguity is never resolved
// by incidental ordering.
func ClassifyIntent(normalizedText string, sentiment *event.SentimentPayload) Intent {
	best := IntentOther
	bestScore := 0
	tied := false

	for _, rule := range intentRules {
		score := 0
		for _, term := range rule.Terms {
			if strings.Contains(normalizedText, term) {
				score++
			}
		}

		switch {
		case rule.Intent == IntentComplaint && sentiment.OverallSentiment == event.SentimentNegative:
			score += sentimentBonus
		case rule.Intent == IntentCompliment && sentiment.OverallSentiment == event.SentimentPositive:
			score += sentimentBonus
		}

		if score > bestScore {
			best = rule.Intent
			bestScore = score
			tied = false
		} else if score == bestScore && score > 0 {
			tied = true
		}
	}

	if bestScore == 0 || tied {
		return IntentOther
	}
	return best
}
