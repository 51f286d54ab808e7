package analysis

import "voc-engine/pkg/event"

// SatisfactionFor maps the overall sentiment label to a satisfaction
// tier: POSITIVE is high, NEGATIVE is low, anything else is medium.
func SatisfactionFor(sentiment *event.SentimentPayload) Satisfaction {
	switch sentiment.OverallSentiment {
	case event.SentimentPositive:
		return SatisfactionHigh
	case event.SentimentNegative:
		return SatisfactionLow
	default:
		return SatisfactionMedium
	}
}

// ChurnRisk computes the churn risk score:
//
//	risk = (1 - sentimentScore) * 0.5 + satisfactionTerm + intentTerm
//
// The sentiment score is the signed [-1, 1] value carried on the
// sentiment stream (clamped at the decode boundary), so a strongly
// negative call alone can push the base term toward 1. The result is
// clamped to [0, 1].
func ChurnRisk(sentimentScore float64, satisfaction Satisfaction, intent Intent) float64 {
	risk := (1 - sentimentScore) * 0.5

	switch satisfaction {
	case SatisfactionLow:
		risk += 0.3
	case SatisfactionMedium:
		risk += 0.1
	}

	if intent == IntentComplaint {
		risk += 0.2
	}

	if risk > 1 {
		return 1
	}
	if risk < 0 {
		return 0
	}
	return risk
}
