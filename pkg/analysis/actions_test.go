package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionItems_HighChurnRisk(t *testing.T) {
	a := testAnalyzer(DefaultConfig())

	items := a.ActionItems([]string{FallbackTopic}, IntentOther, 0.85)

	assert.Contains(t, items, "URGENT: Contact customer within 24 hours to address concerns")
	assert.Contains(t, items, "Escalate to retention team")
	assert.NotContains(t, items, "Follow up within 3 business days")
}

func TestActionItems_MediumChurnRisk(t *testing.T) {
	a := testAnalyzer(DefaultConfig())

	items := a.ActionItems([]string{FallbackTopic}, IntentOther, 0.5)

	assert.Contains(t, items, "Follow up within 3 business days")
	assert.NotContains(t, items, "Escalate to retention team")
}

func TestActionItems_PerIntentAndTopic(t *testing.T) {
	a := testAnalyzer(DefaultConfig())

	items := a.ActionItems([]string{"Billing", "Cancellation"}, IntentComplaint, 0.1)

	assert.Contains(t, items, "Assign to complaints resolution team")
	assert.Contains(t, items, "Review billing accuracy")
	assert.Contains(t, items, "Initiate save process")
	assert.NotContains(t, items, "Create technical support ticket")
}

func TestActionItems_Deduplicated(t *testing.T) {
	a := testAnalyzer(DefaultConfig())

	// Duplicate topics must not duplicate their action item.
	items := a.ActionItems([]string{"Billing", "Billing"}, IntentInquiry, 0)

	seen := make(map[string]int)
	for _, item := range items {
		seen[item]++
	}
	for item, count := range seen {
		assert.Equal(t, 1, count, "duplicate action item: %s", item)
	}
}

func TestActionItems_LowRiskOtherIntentNoTopics(t *testing.T) {
	a := testAnalyzer(DefaultConfig())
	assert.Empty(t, a.ActionItems(nil, IntentOther, 0.1))
}
