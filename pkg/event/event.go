package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event type identifiers carried in the eventType field.
const (
	TypeCallTranscribed   = "CallTranscribed"
	TypeSentimentAnalyzed = "SentimentAnalyzed"
	TypeVocAnalyzed       = "VocAnalyzed"
)

// Overall sentiment labels used on the sentiment stream.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// Envelope is the common wrapper shared by every event on the bus.
// Field names match the platform-wide JSON contract.
type Envelope struct {
	EventID       string            `json:"eventId"`
	EventType     string            `json:"eventType"`
	AggregateID   string            `json:"aggregateId"`
	AggregateType string            `json:"aggregateType"`
	Timestamp     time.Time         `json:"timestamp"`
	Version       int               `json:"version"`
	CausationID   string            `json:"causationId,omitempty"`
	CorrelationID string            `json:"correlationId,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TranscriptionPayload carries the result of a completed transcription.
type TranscriptionPayload struct {
	CallID            string  `json:"callId"`
	TranscriptionText string  `json:"transcriptionText"`
	Language          string  `json:"language,omitempty"`
	Confidence        float64 `json:"confidence,omitempty"`
	DurationSeconds   int     `json:"durationSeconds,omitempty"`
}

// SentimentPayload carries the result of a completed sentiment analysis.
// SentimentScore is a signed score in [-1, 1].
type SentimentPayload struct {
	CallID           string  `json:"callId"`
	OverallSentiment string  `json:"overallSentiment"`
	SentimentScore   float64 `json:"sentimentScore"`
	PositiveScore    float64 `json:"positiveScore,omitempty"`
	NegativeScore    float64 `json:"negativeScore,omitempty"`
	NeutralScore     float64 `json:"neutralScore,omitempty"`
}

// InsightPayload carries the synthesized VoC insight for one call.
type InsightPayload struct {
	CallID               string   `json:"callId"`
	PrimaryIntent        string   `json:"primaryIntent"`
	Topics               []string `json:"topics"`
	Keywords             []string `json:"keywords"`
	CustomerSatisfaction string   `json:"customerSatisfaction"`
	PredictedChurnRisk   float64  `json:"predictedChurnRisk"`
	ActionableItems      []string `json:"actionableItems"`
	Summary              string   `json:"summary"`
}

// CallTranscribed is the inbound event on the transcription stream.
type CallTranscribed struct {
	Envelope
	Payload TranscriptionPayload `json:"payload"`
}

// SentimentAnalyzed is the inbound event on the sentiment stream.
type SentimentAnalyzed struct {
	Envelope
	Payload SentimentPayload `json:"payload"`
}

// VocAnalyzed is the outbound event published once a join completes.
type VocAnalyzed struct {
	Envelope
	Payload InsightPayload `json:"payload"`
}

// DecodeCallTranscribed parses and validates a transcription event.
func DecodeCallTranscribed(body []byte) (*CallTranscribed, error) {
	var evt CallTranscribed
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("failed to decode CallTranscribed event: %w", err)
	}
	if evt.Payload.CallID == "" {
		return nil, fmt.Errorf("CallTranscribed event has no callId")
	}
	return &evt, nil
}

// DecodeSentimentAnalyzed parses and validates a sentiment event. The
// sentiment score is clamped to [-1, 1] here so downstream scoring can
// rely on the documented range.
func DecodeSentimentAnalyzed(body []byte) (*SentimentAnalyzed, error) {
	var evt SentimentAnalyzed
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("failed to decode SentimentAnalyzed event: %w", err)
	}
	if evt.Payload.CallID == "" {
		return nil, fmt.Errorf("SentimentAnalyzed event has no callId")
	}
	if evt.Payload.SentimentScore > 1 {
		evt.Payload.SentimentScore = 1
	} else if evt.Payload.SentimentScore < -1 {
		evt.Payload.SentimentScore = -1
	}
	return &evt, nil
}

// NewVocAnalyzed builds the outbound event for a completed join. The
// correlation ID is propagated unchanged from the joined record and the
// causation ID is the ID of the event that completed the join.
func NewVocAnalyzed(callID string, payload InsightPayload, correlationID, causationID string) *VocAnalyzed {
	return &VocAnalyzed{
		Envelope: Envelope{
			EventID:       uuid.New().String(),
			EventType:     TypeVocAnalyzed,
			AggregateID:   callID,
			AggregateType: "Call",
			Timestamp:     time.Now().UTC(),
			Version:       1,
			CausationID:   causationID,
			CorrelationID: correlationID,
			Metadata: map[string]string{
				"service": "voc-engine",
			},
		},
		Payload: payload,
	}
}
