package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MySQLConfig holds MySQL connection configuration.
type MySQLConfig struct {
	Host            string
	Port            int
	Database        string
	Username        string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

// MySQLSink persists insights to a voc_insights table.
type MySQLSink struct {
	db           *sql.DB
	logger       *logrus.Entry
	queryTimeout time.Duration
}

// NewMySQLSink opens the database connection, verifies it and ensures
// the insight table exists.
func NewMySQLSink(logger *logrus.Logger, cfg MySQLConfig) (*MySQLSink, error) {
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = time.Hour
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s := &MySQLSink{
		db:           db,
		logger:       logger.WithField("component", "sink"),
		queryTimeout: cfg.QueryTimeout,
	}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Database,
	}).Info("Connected to insight database")

	return s, nil
}

func (s *MySQLSink) initSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS voc_insights (
			id VARCHAR(36) PRIMARY KEY,
			call_id VARCHAR(64) NOT NULL,
			primary_intent VARCHAR(32) NOT NULL,
			topics JSON,
			keywords JSON,
			customer_satisfaction VARCHAR(16) NOT NULL,
			predicted_churn_risk DECIMAL(4,3) NOT NULL,
			actionable_items JSON,
			summary TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_voc_insights_call_id (call_id),
			INDEX idx_voc_insights_intent (primary_intent),
			INDEX idx_voc_insights_churn (predicted_churn_risk)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create voc_insights table: %w", err)
	}
	return nil
}

// Save writes one insight record.
func (s *MySQLSink) Save(ctx context.Context, rec *Record) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	topics, err := json.Marshal(rec.Topics)
	if err != nil {
		return fmt.Errorf("failed to encode topics: %w", err)
	}
	keywords, err := json.Marshal(rec.Keywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}
	items, err := json.Marshal(rec.ActionableItems)
	if err != nil {
		return fmt.Errorf("failed to encode actionable items: %w", err)
	}

	query := `
		INSERT INTO voc_insights (
			id, call_id, primary_intent, topics, keywords,
			customer_satisfaction, predicted_churn_risk, actionable_items,
			summary, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.CallID, rec.PrimaryIntent, topics, keywords,
		rec.CustomerSatisfaction, rec.PredictedChurnRisk, items,
		rec.Summary, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save insight: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"call_id": rec.CallID,
		"intent":  rec.PrimaryIntent,
	}).Debug("Insight saved")

	return nil
}

// GetByCallID retrieves the insight for a call, or nil when none
// exists.
func (s *MySQLSink) GetByCallID(ctx context.Context, callID string) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	query := selectColumns + ` WHERE call_id = ? ORDER BY created_at DESC LIMIT 1`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, callID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query insight for call %s: %w", callID, err)
	}
	return rec, nil
}

// ListByIntent retrieves insights with the given primary intent.
func (s *MySQLSink) ListByIntent(ctx context.Context, intent string, limit int) ([]*Record, error) {
	query := selectColumns + ` WHERE primary_intent = ? ORDER BY created_at DESC LIMIT ?`
	return s.list(ctx, query, intent, limit)
}

// ListHighChurnRisk retrieves insights at or above a churn risk
// threshold, highest risk first.
func (s *MySQLSink) ListHighChurnRisk(ctx context.Context, threshold float64, limit int) ([]*Record, error) {
	query := selectColumns + ` WHERE predicted_churn_risk >= ? ORDER BY predicted_churn_risk DESC LIMIT ?`
	return s.list(ctx, query, threshold, limit)
}

// Close releases the underlying connection pool.
func (s *MySQLSink) Close() error {
	return s.db.Close()
}

const selectColumns = `
	SELECT id, call_id, primary_intent, topics, keywords,
		   customer_satisfaction, predicted_churn_risk, actionable_items,
		   summary, created_at
	FROM voc_insights`

func (s *MySQLSink) list(ctx context.Context, query string, args ...interface{}) ([]*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insight row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	rec := &Record{}
	var topics, keywords, items []byte

	err := row.Scan(
		&rec.ID, &rec.CallID, &rec.PrimaryIntent, &topics, &keywords,
		&rec.CustomerSatisfaction, &rec.PredictedChurnRisk, &items,
		&rec.Summary, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(topics, &rec.Topics); err != nil {
		return nil, fmt.Errorf("failed to decode topics: %w", err)
	}
	if err := json.Unmarshal(keywords, &rec.Keywords); err != nil {
		return nil, fmt.Errorf("failed to decode keywords: %w", err)
	}
	if err := json.Unmarshal(items, &rec.ActionableItems); err != nil {
		return nil, fmt.Errorf("failed to decode actionable items: %w", err)
	}

	return rec, nil
}
