package correlation

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"voc-engine/pkg/event"
	"voc-engine/pkg/metrics"
)

// Side identifies which half of the join an arrival carries.
type Side int

const (
	SideTranscription Side = iota
	SideSentiment
)

func (s Side) String() string {
	if s == SideTranscription {
		return "transcription"
	}
	return "sentiment"
}

// Half is one partial arrival handed to Merge.
type Half struct {
	Side          Side
	EventID       string
	CorrelationID string
	Transcription *event.TranscriptionPayload
	Sentiment     *event.SentimentPayload
}

// JoinRecord is the rendezvous state for one call. While stored it
// holds exactly one side; Merge returns it with both sides populated
// the instant the second side arrives, at which point it is no longer
// reachable through the store.
type JoinRecord struct {
	CallID        string
	Transcription *event.TranscriptionPayload
	Sentiment     *event.SentimentPayload

	// CorrelationID is taken from the first arrival that carried one,
	// CausationID is the event ID of the arrival that completed the
	// join.
	CorrelationID string
	CausationID   string

	FirstSeenAt time.Time
}

func (r *JoinRecord) complete() bool {
	return r.Transcription != nil && r.Sentiment != nil
}

// Config holds store tuning parameters.
type Config struct {
	// ShardCount must be a power of two; invalid values fall back to 16.
	ShardCount int

	// TTL is how long a partial record may wait for its other half
	// before the sweeper evicts it. Zero disables eviction entirely,
	// retaining permanently-partial records indefinitely.
	TTL time.Duration

	// SweepInterval is how often the sweeper scans for stale partials.
	SweepInterval time.Duration
}

// Store is the keyed rendezvous point joining the two event streams.
// Each shard serializes its own keys only, so unrelated calls never
// contend on a common lock.
type Store struct {
	shards    []*shard
	shardMask uint32

	ttl           time.Duration
	sweepInterval time.Duration

	// partials mirrors the total record count without taking every
	// shard lock on the hot path.
	partials int64

	logger *logrus.Entry
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type shard struct {
	mu      sync.Mutex
	records map[string]*JoinRecord
}

// NewStore creates a correlation store.
func NewStore(logger *logrus.Logger, cfg Config) *Store {
	count := cfg.ShardCount
	if count <= 0 || (count&(count-1)) != 0 {
		count = 16
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		shards:        make([]*shard, count),
		shardMask:     uint32(count - 1),
		ttl:           cfg.TTL,
		sweepInterval: cfg.SweepInterval,
		logger:        logger.WithField("component", "correlation"),
		ctx:           ctx,
		cancel:        cancel,
	}
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[string]*JoinRecord)}
	}
	return s
}

func (s *Store) shardFor(callID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(callID))
	return s.shards[h.Sum32()&s.shardMask]
}

// Merge records one arrival for a call and reports whether it completed
// the join. The check-and-remove is atomic per call: when both sides
// race in, exactly one caller gets the completed record and the record
// is gone from the store before either lock is released. A repeated
// arrival of an already-stored side overwrites the held payload.
func (s *Store) Merge(callID string, half Half) (*JoinRecord, bool) {
	sh := s.shardFor(callID)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[callID]
	if !ok {
		rec = &JoinRecord{
			CallID:      callID,
			FirstSeenAt: time.Now(),
		}
	}

	switch half.Side {
	case SideTranscription:
		rec.Transcription = half.Transcription
	case SideSentiment:
		rec.Sentiment = half.Sentiment
	}
	if rec.CorrelationID == "" {
		rec.CorrelationID = half.CorrelationID
	}

	if rec.complete() {
		delete(sh.records, callID)
		rec.CausationID = half.EventID
		if ok {
			atomic.AddInt64(&s.partials, -1)
		}
		metrics.JoinCompleted()
		metrics.SetPartialRecords(int(atomic.LoadInt64(&s.partials)))
		return rec, true
	}

	if !ok {
		sh.records[callID] = rec
		atomic.AddInt64(&s.partials, 1)
		metrics.SetPartialRecords(int(atomic.LoadInt64(&s.partials)))
	}
	return nil, false
}

// Len returns the number of partial records currently held.
func (s *Store) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += len(sh.records)
		sh.mu.Unlock()
	}
	return total
}

// Start launches the background sweeper. With a zero TTL the sweeper
// is not started and partial records live forever.
func (s *Store) Start() {
	if s.ttl <= 0 {
		s.logger.Warn("Join TTL disabled, permanently-partial records will be retained indefinitely")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.ctx.Done():
				return
			}
		}
	}()

	s.logger.WithFields(logrus.Fields{
		"ttl":            s.ttl,
		"sweep_interval": s.sweepInterval,
	}).Info("Correlation store sweeper started")
}

// Stop terminates the sweeper and waits for it to exit.
func (s *Store) Stop() {
	s.cancel()
	s.wg.Wait()
}

// sweep evicts partial records older than the TTL and returns how many
// were removed.
func (s *Store) sweep() int {
	cutoff := time.Now().Add(-s.ttl)
	evicted := 0

	for _, sh := range s.shards {
		sh.mu.Lock()
		for callID, rec := range sh.records {
			if rec.FirstSeenAt.Before(cutoff) {
				delete(sh.records, callID)
				atomic.AddInt64(&s.partials, -1)
				evicted++
				s.logger.WithFields(logrus.Fields{
					"call_id": callID,
					"side":    heldSide(rec),
					"age":     time.Since(rec.FirstSeenAt),
				}).Warn("Evicted stale partial join record")
			}
		}
		sh.mu.Unlock()
	}

	if evicted > 0 {
		metrics.PartialsEvicted(evicted)
		metrics.SetPartialRecords(int(atomic.LoadInt64(&s.partials)))
	}
	return evicted
}

func heldSide(rec *JoinRecord) string {
	if rec.Transcription != nil {
		return SideTranscription.String()
	}
	return SideSentiment.String()
}
