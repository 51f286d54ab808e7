package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"voc-engine/pkg/metrics"
)

// AMQPConfig holds broker connection configuration.
type AMQPConfig struct {
	URL string

	// Queues are declared durable on connect so the engine can start
	// before its producers.
	Queues []string

	PrefetchCount int
}

// Client wraps one AMQP connection shared by the consumers and the
// emitter. It reconnects with exponential backoff when the broker
// drops the connection.
type Client struct {
	logger    *logrus.Entry
	config    AMQPConfig
	conn      *amqp.Connection
	channel   *amqp.Channel
	connected bool
	connMutex sync.RWMutex
	stopChan  chan struct{}
}

// NewClient creates an AMQP client for the given broker and queues.
func NewClient(logger *logrus.Logger, config AMQPConfig) *Client {
	if config.PrefetchCount <= 0 {
		config.PrefetchCount = 10
	}
	return &Client{
		logger:   logger.WithField("component", "amqp"),
		config:   config,
		stopChan: make(chan struct{}),
	}
}

// Connect establishes the connection, opens a channel and declares the
// configured queues.
func (c *Client) Connect() error {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.connected {
		return nil
	}
	if c.config.URL == "" {
		return fmt.Errorf("AMQP URL not configured")
	}

	conn, err := amqp.DialConfig(c.config.URL, amqp.Config{
		Dial: amqp.DefaultDial(5 * time.Second),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to AMQP server: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	for _, queue := range c.config.Queues {
		_, err := channel.QueueDeclare(
			queue,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			channel.Close()
			conn.Close()
			return fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
	}

	if err := channel.Qos(c.config.PrefetchCount, 0, false); err != nil {
		c.logger.WithError(err).Warn("Failed to set QoS on AMQP channel, continuing anyway")
	}

	c.conn = conn
	c.channel = channel
	c.connected = true
	c.stopChan = make(chan struct{})
	metrics.SetAMQPConnected(true)

	c.logger.WithFields(logrus.Fields{
		"url":    c.config.URL,
		"queues": c.config.Queues,
	}).Info("Connected to AMQP server")

	go c.monitorConnection()

	return nil
}

// Disconnect closes the connection and stops the reconnect monitor.
func (c *Client) Disconnect() {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if !c.connected {
		return
	}

	close(c.stopChan)
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.connected = false
	metrics.SetAMQPConnected(false)
	c.logger.Info("Disconnected from AMQP server")
}

// IsConnected returns the connection status.
func (c *Client) IsConnected() bool {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()
	return c.connected
}

// Publish sends one persistent JSON message to a queue. The call ID is
// carried as a header so downstream consumers can partition per call.
func (c *Client) Publish(queue, callID string, body []byte) error {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()

	if !c.connected || c.channel == nil {
		return fmt.Errorf("not connected to AMQP server")
	}

	err := c.channel.Publish(
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Headers: amqp.Table{
				"x-call-id": callID,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}
	return nil
}

// Consume delivers messages from a queue to the handler until the
// context is cancelled. Deliveries are acknowledged after the handler
// returns; the handler owns all failure policy, so a message is never
// redelivered by this layer. When the broker connection drops, Consume
// waits for the reconnect monitor and resubscribes.
func (c *Client) Consume(ctx context.Context, queue string, handler func([]byte)) error {
	for {
		deliveries, err := c.subscribe(queue)
		if err != nil {
			c.logger.WithError(err).WithField("queue", queue).Warn("Failed to subscribe, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
				continue
			}
		}

		if done := c.drain(ctx, queue, deliveries, handler); done {
			return ctx.Err()
		}
		// Delivery channel closed underneath us; loop to resubscribe.
	}
}

func (c *Client) subscribe(queue string) (<-chan amqp.Delivery, error) {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()

	if !c.connected || c.channel == nil {
		return nil, fmt.Errorf("not connected to AMQP server")
	}

	return c.channel.Consume(
		queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
}

func (c *Client) drain(ctx context.Context, queue string, deliveries <-chan amqp.Delivery, handler func([]byte)) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case delivery, open := <-deliveries:
			if !open {
				c.logger.WithField("queue", queue).Warn("AMQP delivery channel closed")
				return false
			}
			handler(delivery.Body)
			if err := delivery.Ack(false); err != nil {
				c.logger.WithError(err).WithField("queue", queue).Warn("Failed to ack delivery")
			}
		}
	}
}

// monitorConnection watches for broker-side closes and reconnects with
// exponential backoff.
func (c *Client) monitorConnection() {
	closeChan := make(chan *amqp.Error)

	c.connMutex.RLock()
	if c.conn != nil {
		c.conn.NotifyClose(closeChan)
	}
	c.connMutex.RUnlock()

	select {
	case <-c.stopChan:
		return
	case closeErr := <-closeChan:
		c.connMutex.Lock()
		c.connected = false
		c.connMutex.Unlock()
		metrics.SetAMQPConnected(false)

		c.logger.WithError(closeErr).Warn("AMQP connection closed, attempting to reconnect")

		for attempt := 1; attempt <= 10; attempt++ {
			metrics.AMQPReconnectAttempt()

			if err := c.Connect(); err == nil {
				c.logger.Info("Successfully reconnected to AMQP server")
				return
			} else {
				c.logger.WithError(err).WithField("attempt", attempt).Error("Failed to reconnect to AMQP server")
			}

			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
			time.Sleep(backoff)
		}
	}
}
