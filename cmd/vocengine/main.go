package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"voc-engine/pkg/analysis"
	"voc-engine/pkg/config"
	"voc-engine/pkg/correlation"
	"voc-engine/pkg/messaging"
	"voc-engine/pkg/metrics"
	"voc-engine/pkg/notify"
	"voc-engine/pkg/sink"
	"voc-engine/pkg/util"
)

var logger = logrus.New()

func main() {
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(cfg.LogLevel)

	metrics.Init(logger)
	if cfg.MetricsEnabled {
		go func() {
			if err := metrics.StartServer(logger, cfg.MetricsPort); err != nil {
				logger.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	shutdown := util.NewShutdownManager(logger, 15*time.Second)

	var insightSink sink.Sink
	if cfg.DatabaseEnabled {
		mysqlSink, err := sink.NewMySQLSink(logger, sink.MySQLConfig{
			Host:     cfg.DatabaseHost,
			Port:     cfg.DatabasePort,
			Database: cfg.DatabaseName,
			Username: cfg.DatabaseUser,
			Password: cfg.DatabasePassword,
		})
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to insight database")
		}
		insightSink = mysqlSink
		shutdown.RegisterCloser("insight-database", mysqlSink)
	} else {
		insightSink = sink.NewMemorySink()
	}

	channels := []notify.Channel{
		notify.NewEmailChannel(logger, cfg.NotifyEmailTo, cfg.NotifyEmailEnabled),
		notify.NewSlackChannel(logger, cfg.NotifySlackChannel, cfg.NotifySlackEnabled),
		notify.NewWebhookChannel(logger, cfg.NotifyWebhookURL),
	}
	notifier := notify.NewNotifier(logger, channels, cfg.HighChurnThreshold)

	amqpClient := messaging.NewClient(logger, messaging.AMQPConfig{
		URL:    cfg.AMQPURL,
		Queues: []string{cfg.TranscriptionQueue, cfg.SentimentQueue, cfg.InsightQueue},
	})
	if err := amqpClient.Connect(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to AMQP server")
	}
	shutdown.Register("amqp", func(context.Context) error {
		amqpClient.Disconnect()
		return nil
	})

	store := correlation.NewStore(logger, correlation.Config{
		TTL:           cfg.JoinTTL,
		SweepInterval: cfg.SweepInterval,
	})
	store.Start()
	shutdown.Register("correlation-store", func(context.Context) error {
		store.Stop()
		return nil
	})

	analysisCfg := analysis.Config{
		MinKeywordLength:     cfg.MinKeywordLength,
		MaxKeywords:          cfg.MaxKeywords,
		HighChurnThreshold:   cfg.HighChurnThreshold,
		MediumChurnThreshold: cfg.MediumChurnThreshold,
	}
	if len(cfg.Stopwords) > 0 {
		analysisCfg.Stopwords = analysis.StopwordSet(cfg.Stopwords)
	}
	analyzer := analysis.New(logger, analysisCfg)

	emitter := messaging.NewEmitter(logger, amqpClient, insightSink, notifier, cfg.InsightQueue)
	pipeline := messaging.NewPipeline(logger, analyzer, emitter)

	listeners := []*messaging.StreamListener{
		messaging.NewTranscriptionListener(logger, amqpClient, store, pipeline, cfg.TranscriptionQueue),
		messaging.NewSentimentListener(logger, amqpClient, store, pipeline, cfg.SentimentQueue),
	}

	var wg sync.WaitGroup
	for _, listener := range listeners {
		wg.Add(1)
		go func(l *messaging.StreamListener) {
			defer wg.Done()
			if err := l.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("Stream listener exited")
			}
		}(listener)
	}

	logger.WithFields(logrus.Fields{
		"transcription_queue": cfg.TranscriptionQueue,
		"sentiment_queue":     cfg.SentimentQueue,
		"insight_queue":       cfg.InsightQueue,
	}).Info("VoC engine started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("Received shutdown signal, cleaning up")

	// Stop consuming before tearing anything else down so in-flight
	// messages finish against live dependencies.
	rootCancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := shutdown.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown finished with errors")
	}

	logger.Info("VoC engine stopped")
}
