package sink

import (
	"context"
	"time"
)

// Record is the persisted form of one VoC insight.
type Record struct {
	ID                   string    `db:"id" json:"id"`
	CallID               string    `db:"call_id" json:"call_id"`
	PrimaryIntent        string    `db:"primary_intent" json:"primary_intent"`
	Topics               []string  `db:"topics" json:"topics"`
	Keywords             []string  `db:"keywords" json:"keywords"`
	CustomerSatisfaction string    `db:"customer_satisfaction" json:"customer_satisfaction"`
	PredictedChurnRisk   float64   `db:"predicted_churn_risk" json:"predicted_churn_risk"`
	ActionableItems      []string  `db:"actionable_items" json:"actionable_items"`
	Summary              string    `db:"summary" json:"summary"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// Sink persists computed insights. Save is used fire-and-forget by the
// emitter; a returned error is logged, never retried.
type Sink interface {
	Save(ctx context.Context, rec *Record) error
}
