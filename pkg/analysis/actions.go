package analysis

// ActionItems builds the recommendation list for an analyzed call from
// the churn risk band, the classified intent and the matched topics.
// The final list is de-duplicated preserving first-occurrence order.
func (a *Analyzer) ActionItems(topics []string, intent Intent, churnRisk float64) []string {
	var items []string

	if churnRisk >= a.cfg.HighChurnThreshold {
		items = append(items,
			"URGENT: Contact customer within 24 hours to address concerns",
			"Escalate to retention team",
			"Offer compensation or service recovery",
		)
	} else if churnRisk >= a.cfg.MediumChurnThreshold {
		items = append(items,
			"Follow up within 3 business days",
			"Monitor account for additional issues",
		)
	}

	switch intent {
	case IntentComplaint:
		items = append(items,
			"Assign to complaints resolution team",
			"Document issue in customer profile",
			"Send apology and resolution timeline",
		)
	case IntentInquiry:
		items = append(items,
			"Provide requested information",
			"Send educational resources",
		)
	case IntentRequest:
		items = append(items,
			"Process customer request",
			"Confirm completion with customer",
		)
	case IntentCompliment:
		items = append(items,
			"Share positive feedback with team",
			"Consider for testimonial or case study",
		)
	}

	for _, topic := range topics {
		switch topic {
		case "Billing":
			items = append(items, "Review billing accuracy")
		case "Technical Support":
			items = append(items, "Create technical support ticket")
		case "Cancellation":
			items = append(items, "Initiate save process")
		}
	}

	return dedupe(items)
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
