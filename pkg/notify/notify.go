package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"voc-engine/pkg/sink"
)

// Channel is a single downstream notification capability. The engine
// fans out through this interface and never branches on channel type.
type Channel interface {
	Send(rec *sink.Record) error
	Name() string
	Enabled() bool
}

// Notifier fans an insight out to every enabled channel when its churn
// risk reaches the high threshold. Delivery is best-effort; failures
// are logged and never retried.
type Notifier struct {
	logger    *logrus.Entry
	channels  []Channel
	threshold float64
}

// NewNotifier creates a notifier with the given channels and high-risk
// threshold.
func NewNotifier(logger *logrus.Logger, channels []Channel, threshold float64) *Notifier {
	return &Notifier{
		logger:    logger.WithField("component", "notify"),
		channels:  channels,
		threshold: threshold,
	}
}

// InsightComputed evaluates one insight and dispatches notifications
// for high-churn-risk calls. Channels are invoked concurrently so a
// slow webhook cannot stall the listener goroutine.
func (n *Notifier) InsightComputed(rec *sink.Record) {
	if rec.PredictedChurnRisk < n.threshold {
		return
	}

	for _, channel := range n.channels {
		if !channel.Enabled() {
			continue
		}
		go func(ch Channel) {
			if err := ch.Send(rec); err != nil {
				n.logger.WithError(err).WithFields(logrus.Fields{
					"channel": ch.Name(),
					"call_id": rec.CallID,
				}).Warn("Failed to send high-churn notification")
			}
		}(channel)
	}
}

// EmailChannel is a stub email notifier: it logs the notification that
// a real deployment would hand to a mail relay.
type EmailChannel struct {
	logger     *logrus.Entry
	recipients []string
	enabled    bool
}

// NewEmailChannel creates the email stub.
func NewEmailChannel(logger *logrus.Logger, recipients []string, enabled bool) *EmailChannel {
	return &EmailChannel{
		logger:     logger.WithField("channel", "email"),
		recipients: recipients,
		enabled:    enabled,
	}
}

func (e *EmailChannel) Send(rec *sink.Record) error {
	e.logger.WithFields(logrus.Fields{
		"call_id":    rec.CallID,
		"churn_risk": rec.PredictedChurnRisk,
		"recipients": e.recipients,
	}).Info("Email notification (stub)")
	return nil
}

func (e *EmailChannel) Name() string  { return "email" }
func (e *EmailChannel) Enabled() bool { return e.enabled }

// SlackChannel is a stub Slack notifier.
type SlackChannel struct {
	logger  *logrus.Entry
	channel string
	enabled bool
}

// NewSlackChannel creates the Slack stub.
func NewSlackChannel(logger *logrus.Logger, channel string, enabled bool) *SlackChannel {
	return &SlackChannel{
		logger:  logger.WithField("channel", "slack"),
		channel: channel,
		enabled: enabled,
	}
}

func (s *SlackChannel) Send(rec *sink.Record) error {
	s.logger.WithFields(logrus.Fields{
		"call_id":       rec.CallID,
		"churn_risk":    rec.PredictedChurnRisk,
		"slack_channel": s.channel,
	}).Info("Slack notification (stub)")
	return nil
}

func (s *SlackChannel) Name() string  { return "slack" }
func (s *SlackChannel) Enabled() bool { return s.enabled }

// WebhookChannel POSTs the insight as JSON to a configured URL.
type WebhookChannel struct {
	logger  *logrus.Entry
	url     string
	client  *http.Client
	enabled bool
}

// NewWebhookChannel creates a webhook channel for the given URL. An
// empty URL disables the channel.
func NewWebhookChannel(logger *logrus.Logger, url string) *WebhookChannel {
	return &WebhookChannel{
		logger:  logger.WithField("channel", "webhook"),
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		enabled: url != "",
	}
}

func (w *WebhookChannel) Send(rec *sink.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (w *WebhookChannel) Name() string  { return "webhook" }
func (w *WebhookChannel) Enabled() bool { return w.enabled }
