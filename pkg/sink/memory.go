package sink

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemorySink is an in-memory Sink for tests and for running without a
// database configured.
type MemorySink struct {
	mu      sync.RWMutex
	records []*Record
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Save stores a copy of the record.
func (m *MemorySink) Save(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	m.records = append(m.records, &stored)
	return nil
}

// ByCallID returns every stored record for a call.
func (m *MemorySink) ByCallID(callID string) []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Record
	for _, rec := range m.records {
		if rec.CallID == callID {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the total number of stored records.
func (m *MemorySink) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
