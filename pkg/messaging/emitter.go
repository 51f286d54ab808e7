package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"voc-engine/pkg/analysis"
	"voc-engine/pkg/correlation"
	"voc-engine/pkg/event"
	"voc-engine/pkg/metrics"
	"voc-engine/pkg/notify"
	"voc-engine/pkg/sink"
)

// Publisher is the outbound transport used by the emitter.
type Publisher interface {
	Publish(queue, callID string, body []byte) error
}

// Emitter serializes a computed insight into the outbound event,
// publishes it keyed by call ID and writes through to the sink. Both
// operations are best-effort: a failure of one is logged and does not
// roll back the other.
type Emitter struct {
	logger    *logrus.Entry
	publisher Publisher
	sink      sink.Sink
	notifier  *notify.Notifier
	queue     string
}

// NewEmitter creates an emitter publishing to the given queue. The
// notifier may be nil when no channels are configured.
func NewEmitter(logger *logrus.Logger, publisher Publisher, s sink.Sink, notifier *notify.Notifier, queue string) *Emitter {
	return &Emitter{
		logger:    logger.WithField("component", "emitter"),
		publisher: publisher,
		sink:      s,
		notifier:  notifier,
		queue:     queue,
	}
}

// Emit publishes and persists the insight for one completed join.
func (e *Emitter) Emit(rec *correlation.JoinRecord, insight *analysis.Insight) {
	payload := event.InsightPayload{
		CallID:               rec.CallID,
		PrimaryIntent:        string(insight.PrimaryIntent),
		Topics:               insight.Topics,
		Keywords:             insight.Keywords,
		CustomerSatisfaction: string(insight.CustomerSatisfaction),
		PredictedChurnRisk:   insight.PredictedChurnRisk,
		ActionableItems:      insight.ActionableItems,
		Summary:              insight.Summary,
	}

	evt := event.NewVocAnalyzed(rec.CallID, payload, rec.CorrelationID, rec.CausationID)

	body, err := json.Marshal(evt)
	if err != nil {
		metrics.PublishFailed()
		e.logger.WithError(err).WithField("call_id", rec.CallID).Error("Failed to encode insight event")
	} else if err := e.publisher.Publish(e.queue, rec.CallID, body); err != nil {
		metrics.PublishFailed()
		e.logger.WithError(err).WithField("call_id", rec.CallID).Error("Failed to publish insight event")
	} else {
		metrics.EventPublished()
		e.logger.WithFields(logrus.Fields{
			"call_id":  rec.CallID,
			"event_id": evt.EventID,
			"intent":   payload.PrimaryIntent,
		}).Info("Published insight event")
	}

	record := &sink.Record{
		ID:                   evt.EventID,
		CallID:               rec.CallID,
		PrimaryIntent:        payload.PrimaryIntent,
		Topics:               payload.Topics,
		Keywords:             payload.Keywords,
		CustomerSatisfaction: payload.CustomerSatisfaction,
		PredictedChurnRisk:   payload.PredictedChurnRisk,
		ActionableItems:      payload.ActionableItems,
		Summary:              payload.Summary,
		CreatedAt:            evt.Timestamp,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.sink.Save(ctx, record); err != nil {
		metrics.PersistFailed()
		e.logger.WithError(err).WithField("call_id", rec.CallID).Error("Failed to persist insight")
	} else {
		metrics.InsightPersisted()
	}

	if e.notifier != nil {
		e.notifier.InsightComputed(record)
	}
}
