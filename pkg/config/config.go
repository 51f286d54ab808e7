package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Configuration holds the full engine configuration, loaded from
// environment variables.
type Configuration struct {
	// AMQP
	AMQPURL            string
	TranscriptionQueue string
	SentimentQueue     string
	InsightQueue       string

	// Analysis
	Stopwords            []string
	MinKeywordLength     int
	MaxKeywords          int
	HighChurnThreshold   float64
	MediumChurnThreshold float64

	// Correlation store
	JoinTTL       time.Duration
	SweepInterval time.Duration

	// Insight database. DatabaseEnabled is false when DB_HOST is not
	// set, in which case insights are kept in memory only.
	DatabaseEnabled  bool
	DatabaseHost     string
	DatabasePort     int
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Notifications
	NotifyEmailEnabled bool
	NotifyEmailTo      []string
	NotifySlackEnabled bool
	NotifySlackChannel string
	NotifyWebhookURL   string

	// Observability
	MetricsEnabled bool
	MetricsPort    int
	LogLevel       logrus.Level
}

// Load reads the configuration from the environment. A .env file is
// honored when present but not required.
func Load(logger *logrus.Logger) (*Configuration, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using process environment")
	}

	config := &Configuration{}

	config.AMQPURL = os.Getenv("AMQP_URL")
	if config.AMQPURL == "" {
		return nil, fmt.Errorf("AMQP_URL is required")
	}

	config.TranscriptionQueue = envOrDefault("TRANSCRIPTION_QUEUE", "calls.transcribed")
	config.SentimentQueue = envOrDefault("SENTIMENT_QUEUE", "calls.sentiment-analyzed")
	config.InsightQueue = envOrDefault("INSIGHT_QUEUE", "calls.voc-analyzed")

	if stopwords := os.Getenv("VOC_STOPWORDS"); stopwords != "" {
		config.Stopwords = strings.Split(stopwords, ",")
	}

	config.MinKeywordLength = envInt(logger, "VOC_MIN_KEYWORD_LENGTH", 3)
	config.MaxKeywords = envInt(logger, "VOC_MAX_KEYWORDS", 10)
	config.HighChurnThreshold = envFloat(logger, "CHURN_HIGH_THRESHOLD", 0.7)
	config.MediumChurnThreshold = envFloat(logger, "CHURN_MEDIUM_THRESHOLD", 0.4)

	if config.MediumChurnThreshold > config.HighChurnThreshold {
		return nil, fmt.Errorf("CHURN_MEDIUM_THRESHOLD (%.2f) must not exceed CHURN_HIGH_THRESHOLD (%.2f)",
			config.MediumChurnThreshold, config.HighChurnThreshold)
	}

	config.JoinTTL = envDuration(logger, "JOIN_TTL", 10*time.Minute)
	config.SweepInterval = envDuration(logger, "JOIN_SWEEP_INTERVAL", 30*time.Second)

	config.DatabaseHost = os.Getenv("DB_HOST")
	config.DatabaseEnabled = config.DatabaseHost != ""
	if config.DatabaseEnabled {
		config.DatabasePort = envInt(logger, "DB_PORT", 3306)
		config.DatabaseName = envOrDefault("DB_NAME", "voc")
		config.DatabaseUser = envOrDefault("DB_USER", "voc")
		config.DatabasePassword = os.Getenv("DB_PASSWORD")
	} else {
		logger.Warn("DB_HOST not set, insights will be kept in memory only")
	}

	config.NotifyEmailEnabled = os.Getenv("NOTIFY_EMAIL_ENABLED") == "true"
	if to := os.Getenv("NOTIFY_EMAIL_TO"); to != "" {
		config.NotifyEmailTo = strings.Split(to, ",")
	}
	config.NotifySlackEnabled = os.Getenv("NOTIFY_SLACK_ENABLED") == "true"
	config.NotifySlackChannel = envOrDefault("NOTIFY_SLACK_CHANNEL", "#customer-retention")
	config.NotifyWebhookURL = os.Getenv("NOTIFY_WEBHOOK_URL")

	config.MetricsEnabled = os.Getenv("METRICS_ENABLED") != "false"
	config.MetricsPort = envInt(logger, "METRICS_PORT", 9090)

	levelStr := envOrDefault("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		logger.WithField("log_level", levelStr).Warn("Invalid LOG_LEVEL, defaulting to info")
		level = logrus.InfoLevel
	}
	config.LogLevel = level

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envInt(logger *logrus.Logger, key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		logger.WithField(strings.ToLower(key), val).Warnf("Invalid %s, using default %d", key, fallback)
		return fallback
	}
	return parsed
}

func envFloat(logger *logrus.Logger, key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil || parsed < 0 || parsed > 1 {
		logger.WithField(strings.ToLower(key), val).Warnf("Invalid %s, using default %.2f", key, fallback)
		return fallback
	}
	return parsed
}

func envDuration(logger *logrus.Logger, key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil || parsed < 0 {
		logger.WithField(strings.ToLower(key), val).Warnf("Invalid %s, using default %s", key, fallback)
		return fallback
	}
	return parsed
}
