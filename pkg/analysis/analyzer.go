package analysis

import (
	"time"

	"github.com/sirupsen/logrus"

	"voc-engine/pkg/event"
)

// Intent is the classified purpose of a call.
type Intent string

const (
	IntentComplaint  Intent = "complaint"
	IntentInquiry    Intent = "inquiry"
	IntentCompliment Intent = "compliment"
	IntentRequest    Intent = "request"
	IntentOther      Intent = "other"
)

// Satisfaction is the customer satisfaction tier derived from sentiment.
type Satisfaction string

const (
	SatisfactionLow    Satisfaction = "low"
	SatisfactionMedium Satisfaction = "medium"
	SatisfactionHigh   Satisfaction = "high"
)

// Insight is the full analysis output for one call. It is immutable
// once returned from Analyze.
type Insight struct {
	Keywords             []string
	Topics               []string
	PrimaryIntent        Intent
	CustomerSatisfaction Satisfaction
	PredictedChurnRisk   float64
	ActionableItems      []string
	Summary              string
}

// Config holds the tunable parameters of the analysis pipeline.
type Config struct {
	Stopwords            map[string]struct{}
	MinKeywordLength     int
	MaxKeywords          int
	HighChurnThreshold   float64
	MediumChurnThreshold float64
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		Stopwords:            StopwordSet(DefaultStopwords),
		MinKeywordLength:     3,
		MaxKeywords:          10,
		HighChurnThreshold:   0.7,
		MediumChurnThreshold: 0.4,
	}
}

// StopwordSet converts a stopword list into a lookup set.
func StopwordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Analyzer runs the VoC analysis pipeline. It is stateless apart from
// its configuration and safe for concurrent use.
type Analyzer struct {
	cfg    Config
	logger *logrus.Entry
}

// New creates an analyzer with the given configuration.
func New(logger *logrus.Logger, cfg Config) *Analyzer {
	if cfg.MinKeywordLength <= 0 {
		cfg.MinKeywordLength = 3
	}
	if cfg.MaxKeywords <= 0 {
		cfg.MaxKeywords = 10
	}
	if cfg.Stopwords == nil {
		cfg.Stopwords = StopwordSet(DefaultStopwords)
	}
	if cfg.HighChurnThreshold == 0 {
		cfg.HighChurnThreshold = 0.7
	}
	if cfg.MediumChurnThreshold == 0 {
		cfg.MediumChurnThreshold = 0.4
	}

	return &Analyzer{
		cfg:    cfg,
		logger: logger.WithField("component", "analysis"),
	}
}

// Analyze computes the insight for one completed join. Both halves must
// be present; the function itself is pure with respect to its inputs.
func (a *Analyzer) Analyze(transcription string, sentiment *event.SentimentPayload) *Insight {
	start := time.Now()

	normalized := NormalizeText(transcription)

	keywords := a.ExtractKeywords(normalized)
	topics := ClassifyTopics(keywords)
	intent := ClassifyIntent(normalized, sentiment)
	satisfaction := SatisfactionFor(sentiment)
	churnRisk := ChurnRisk(sentiment.SentimentScore, satisfaction, intent)
	items := a.ActionItems(topics, intent, churnRisk)
	summary := a.Summary(intent, satisfaction, churnRisk, topics)

	a.logger.WithFields(logrus.Fields{
		"call_id":    sentiment.CallID,
		"intent":     intent,
		"churn_risk": churnRisk,
		"duration":   time.Since(start),
	}).Debug("Completed VoC analysis")

	return &Insight{
		Keywords:             keywords,
		Topics:               topics,
		PrimaryIntent:        intent,
		CustomerSatisfaction: satisfaction,
		PredictedChurnRisk:   churnRisk,
		ActionableItems:      items,
		Summary:              summary,
	}
}
