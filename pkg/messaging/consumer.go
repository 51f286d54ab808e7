package messaging

import (
	"context"

	"github.com/sirupsen/logrus"

	"voc-engine/pkg/correlation"
	"voc-engine/pkg/event"
	"voc-engine/pkg/metrics"
)

// MessageSource is the inbound transport used by the listeners.
type MessageSource interface {
	Consume(ctx context.Context, queue string, handler func([]byte)) error
}

// StreamListener consumes one input stream and forwards each decoded
// event to the correlation store. The two listeners of the engine run
// independently and never wait on each other; when a merge completes
// the join, the listener runs the pipeline synchronously on its own
// goroutine.
type StreamListener struct {
	logger   *logrus.Entry
	source   MessageSource
	store    *correlation.Store
	pipeline *Pipeline
	queue    string
	side     correlation.Side
}

// NewTranscriptionListener creates the listener for the transcription
// stream.
func NewTranscriptionListener(logger *logrus.Logger, source MessageSource, store *correlation.Store, pipeline *Pipeline, queue string) *StreamListener {
	return newListener(logger, source, store, pipeline, queue, correlation.SideTranscription)
}

// NewSentimentListener creates the listener for the sentiment stream.
func NewSentimentListener(logger *logrus.Logger, source MessageSource, store *correlation.Store, pipeline *Pipeline, queue string) *StreamListener {
	return newListener(logger, source, store, pipeline, queue, correlation.SideSentiment)
}

func newListener(logger *logrus.Logger, source MessageSource, store *correlation.Store, pipeline *Pipeline, queue string, side correlation.Side) *StreamListener {
	return &StreamListener{
		logger: logger.WithFields(logrus.Fields{
			"component": "listener",
			"stream":    side.String(),
		}),
		source:   source,
		store:    store,
		pipeline: pipeline,
		queue:    queue,
		side:     side,
	}
}

// Run consumes the stream until the context is cancelled.
func (l *StreamListener) Run(ctx context.Context) error {
	l.logger.WithField("queue", l.queue).Info("Stream listener started")
	return l.source.Consume(ctx, l.queue, l.Handle)
}

// Handle processes one raw message. Malformed payloads are logged and
// dropped without retry or dead-lettering.
func (l *StreamListener) Handle(body []byte) {
	metrics.EventConsumed(l.side.String())

	half, callID, err := l.decode(body)
	if err != nil {
		metrics.DecodeError(l.side.String())
		l.logger.WithError(err).Warn("Dropped malformed event")
		return
	}

	rec, done := l.store.Merge(callID, half)
	if !done {
		l.logger.WithField("call_id", callID).Debug("Recorded partial join")
		return
	}

	l.logger.WithField("call_id", callID).Info("Join completed, running analysis")
	l.pipeline.Process(rec)
}

func (l *StreamListener) decode(body []byte) (correlation.Half, string, error) {
	if l.side == correlation.SideTranscription {
		evt, err := event.DecodeCallTranscribed(body)
		if err != nil {
			return correlation.Half{}, "", err
		}
		return correlation.Half{
			Side:          correlation.SideTranscription,
			EventID:       evt.EventID,
			CorrelationID: evt.CorrelationID,
			Transcription: &evt.Payload,
		}, evt.Payload.CallID, nil
	}

	evt, err := event.DecodeSentimentAnalyzed(body)
	if err != nil {
		return correlation.Half{}, "", err
	}
	return correlation.Half{
		Side:          correlation.SideSentiment,
		EventID:       evt.EventID,
		CorrelationID: evt.CorrelationID,
		Sentiment:     &evt.Payload,
	}, evt.Payload.CallID, nil
}
