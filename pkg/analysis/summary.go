package analysis

import "strings"

// Summary composes the natural-language summary of an analyzed call.
func (a *Analyzer) Summary(intent Intent, satisfaction Satisfaction, churnRisk float64, topics []string) string {
	var b strings.Builder

	b.WriteString("Customer contact classified as ")
	b.WriteString(string(intent))
	b.WriteString(" with ")
	b.WriteString(string(satisfaction))
	b.WriteString(" satisfaction level. ")

	if churnRisk >= a.cfg.HighChurnThreshold {
		b.WriteString("HIGH churn risk detected. ")
	} else if churnRisk >= a.cfg.MediumChurnThreshold {
		b.WriteString("MEDIUM churn risk detected. ")
	} else {
		b.WriteString("LOW churn risk. ")
	}

	if len(topics) > 0 {
		b.WriteString("Primary topics: ")
		b.WriteString(strings.Join(topics, ", "))
		b.WriteString(".")
	}

	return b.String()
}
