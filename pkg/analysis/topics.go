package analysis

import "strings"

// FallbackTopic is emitted when no topic rule matches.
const FallbackTopic = "General Inquiry"

// topicRule maps a topic label to its representative terms.
type topicRule struct {
	Label string
	Terms []string
}

// topicRules is evaluated in declaration order; the output preserves
// this order regardless of match strength.
var topicRules = []topicRule{
	{"Billing", []string{"bill", "charge", "payment", "invoice", "price", "cost", "fee"}},
	{"Technical Support", []string{"technical", "not working", "broken", "error", "bug", "crash", "issue"}},
	{"Account Management", []string{"account", "login", "password", "username", "profile", "settings"}},
	{"Product Quality", []string{"quality", "product", "defective", "warranty", "return", "refund"}},
	{"Customer Service", []string{"service", "representative", "agent", "support", "help", "assist"}},
	{"Delivery", []string{"delivery", "shipping", "tracking", "arrived", "package", "order"}},
	{"Cancellation", []string{"cancel", "terminate", "discontinue", "stop", "end"}},
}

// ClassifyTopics selects every topic whose terms overlap the extracted
// keywords. The match is a bidirectional substring test: a keyword
// containing a term or a term containing the keyword both count.
func ClassifyTopics(keywords []string) []string {
	var topics []string

	for _, rule := range topicRules {
		if topicMatches(rule.Terms, keywords) {
			topics = append(topics, rule.Label)
		}
	}

	if len(topics) == 0 {
		return []string{FallbackTopic}
	}
	return topics
}

func topicMatches(terms, keywords []string) bool {
	for _, kw := range keywords {
		for _, term := range terms {
			if strings.Contains(kw, term) || strings.Contains(term, kw) {
				return true
			}
		}
	}
	return false
}
