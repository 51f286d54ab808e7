package correlation

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voc-engine/pkg/event"
)

func testStore(cfg Config) *Store {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewStore(logger, cfg)
}

func transcriptionHalf(callID, eventID, correlationID string) Half {
	return Half{
		Side:          SideTranscription,
		EventID:       eventID,
		CorrelationID: correlationID,
		Transcription: &event.TranscriptionPayload{
			CallID:            callID,
			TranscriptionText: "some call text",
		},
	}
}

func sentimentHalf(callID, eventID, correlationID string) Half {
	return Half{
		Side:          SideSentiment,
		EventID:       eventID,
		CorrelationID: correlationID,
		Sentiment: &event.SentimentPayload{
			CallID:           callID,
			OverallSentiment: event.SentimentNegative,
			SentimentScore:   -0.5,
		},
	}
}

func TestMerge_TranscriptionThenSentiment(t *testing.T) {
	s := testStore(Config{})

	rec, done := s.Merge("call-1", transcriptionHalf("call-1", "evt-a", "corr-1"))
	assert.False(t, done)
	assert.Nil(t, rec)
	assert.Equal(t, 1, s.Len())

	rec, done = s.Merge("call-1", sentimentHalf("call-1", "evt-b", "corr-1"))
	require.True(t, done)
	require.NotNil(t, rec)
	assert.NotNil(t, rec.Transcription)
	assert.NotNil(t, rec.Sentiment)
	assert.Equal(t, "corr-1", rec.CorrelationID)
	assert.Equal(t, "evt-b", rec.CausationID)
	assert.Equal(t, 0, s.Len())
}

func TestMerge_SentimentThenTranscription(t *testing.T) {
	s := testStore(Config{})

	_, done := s.Merge("call-1", sentimentHalf("call-1", "evt-b", "corr-1"))
	assert.False(t, done)

	rec, done := s.Merge("call-1", transcriptionHalf("call-1", "evt-a", "corr-1"))
	require.True(t, done)

	// Arrival order does not change the joined content.
	assert.Equal(t, "some call text", rec.Transcription.TranscriptionText)
	assert.Equal(t, event.SentimentNegative, rec.Sentiment.OverallSentiment)
	assert.Equal(t, "evt-a", rec.CausationID)
}

func TestMerge_CorrelationIDFromFirstArrival(t *testing.T) {
	s := testStore(Config{})

	s.Merge("call-1", sentimentHalf("call-1", "evt-b", "corr-from-sentiment"))
	rec, done := s.Merge("call-1", transcriptionHalf("call-1", "evt-a", "corr-from-transcription"))

	require.True(t, done)
	assert.Equal(t, "corr-from-sentiment", rec.CorrelationID)
}

func TestMerge_DuplicateSideOverwrites(t *testing.T) {
	s := testStore(Config{})

	s.Merge("call-1", transcriptionHalf("call-1", "evt-a", ""))

	dup := transcriptionHalf("call-1", "evt-a2", "")
	dup.Transcription.TranscriptionText = "replacement text"
	_, done := s.Merge("call-1", dup)
	assert.False(t, done)
	assert.Equal(t, 1, s.Len())

	rec, done := s.Merge("call-1", sentimentHalf("call-1", "evt-b", ""))
	require.True(t, done)
	assert.Equal(t, "replacement text", rec.Transcription.TranscriptionText)
}

func TestMerge_LateDuplicateStartsFreshPartial(t *testing.T) {
	s := testStore(Config{})

	s.Merge("call-1", transcriptionHalf("call-1", "evt-a", ""))
	_, done := s.Merge("call-1", sentimentHalf("call-1", "evt-b", ""))
	require.True(t, done)

	// A straggler duplicate after the join fired opens a new partial
	// record rather than re-triggering analysis.
	rec, done := s.Merge("call-1", sentimentHalf("call-1", "evt-b2", ""))
	assert.False(t, done)
	assert.Nil(t, rec)
	assert.Equal(t, 1, s.Len())
}

func TestMerge_IndependentCalls(t *testing.T) {
	s := testStore(Config{})

	for i := 0; i < 100; i++ {
		callID := fmt.Sprintf("call-%d", i)
		_, done := s.Merge(callID, transcriptionHalf(callID, "evt-a", ""))
		assert.False(t, done)
	}
	assert.Equal(t, 100, s.Len())

	for i := 0; i < 100; i++ {
		callID := fmt.Sprintf("call-%d", i)
		_, done := s.Merge(callID, sentimentHalf(callID, "evt-b", ""))
		assert.True(t, done)
	}
	assert.Equal(t, 0, s.Len())
}

// Exactly one of two concurrent merges for the same call must observe
// completion, for every interleaving the scheduler produces.
func TestMerge_ExactlyOneTriggerUnderConcurrency(t *testing.T) {
	s := testStore(Config{})

	const iterations = 2000
	for i := 0; i < iterations; i++ {
		callID := fmt.Sprintf("call-%d", i)

		var completions int32
		var wg sync.WaitGroup
		var mu sync.Mutex

		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, done := s.Merge(callID, transcriptionHalf(callID, "evt-a", "")); done {
				mu.Lock()
				completions++
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			if _, done := s.Merge(callID, sentimentHalf(callID, "evt-b", "")); done {
				mu.Lock()
				completions++
				mu.Unlock()
			}
		}()
		wg.Wait()

		require.Equal(t, int32(1), completions, "call %s", callID)
	}

	assert.Equal(t, 0, s.Len())
}

func TestSweep_EvictsStalePartials(t *testing.T) {
	s := testStore(Config{TTL: 10 * time.Millisecond})

	s.Merge("stale", transcriptionHalf("stale", "evt-a", ""))
	time.Sleep(20 * time.Millisecond)
	s.Merge("fresh", transcriptionHalf("fresh", "evt-c", ""))

	evicted := s.sweep()

	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, s.Len())

	// The fresh record can still complete.
	_, done := s.Merge("fresh", sentimentHalf("fresh", "evt-d", ""))
	assert.True(t, done)
}

// Without a TTL a call whose other half never arrives is retained
// indefinitely. This documents the current behavior of the zero value,
// not necessarily a desirable contract.
func TestZeroTTL_RetainsPartialsForever(t *testing.T) {
	s := testStore(Config{TTL: 0})

	s.Merge("orphan", transcriptionHalf("orphan", "evt-a", ""))
	s.Start()
	defer s.Stop()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, s.Len())
}

func TestStartStop_SweeperLifecycle(t *testing.T) {
	s := testStore(Config{TTL: 5 * time.Millisecond, SweepInterval: 5 * time.Millisecond})

	s.Merge("stale", sentimentHalf("stale", "evt-b", ""))
	s.Start()

	assert.Eventually(t, func() bool {
		return s.Len() == 0
	}, time.Second, 5*time.Millisecond)

	s.Stop()
}
