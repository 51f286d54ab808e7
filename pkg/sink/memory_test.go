package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySink_SaveAndLookup(t *testing.T) {
	s := NewMemorySink()

	err := s.Save(context.Background(), &Record{
		CallID:               "call-1",
		PrimaryIntent:        "complaint",
		Topics:               []string{"Billing"},
		CustomerSatisfaction: "low",
		PredictedChurnRisk:   0.9,
	})
	require.NoError(t, err)

	records := s.ByCallID("call-1")
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID)
	assert.False(t, records[0].CreatedAt.IsZero())
	assert.Equal(t, "complaint", records[0].PrimaryIntent)

	assert.Empty(t, s.ByCallID("call-2"))
	assert.Equal(t, 1, s.Len())
}

func TestMemorySink_StoresCopies(t *testing.T) {
	s := NewMemorySink()

	rec := &Record{CallID: "call-1", Summary: "original"}
	require.NoError(t, s.Save(context.Background(), rec))

	rec.Summary = "mutated after save"

	stored := s.ByCallID("call-1")
	require.Len(t, stored, 1)
	assert.Equal(t, "original", stored[0].Summary)
}
