package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry(i int) *Entry {
	return &Entry{
		ID:             fmt.Sprintf("e-%d", i),
		Timestamp:      time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
		EventType:      EventToolCall,
		ConversationID: fmt.Sprintf("conv-%d", i%2),
		Model:          "llama3.1:8b",
		ToolName:       "list_jobs",
		Success:        i%3 != 0,
	}
}

func TestMemoryBackend_QueryFilters(t *testing.T) {
	m := NewMemoryBackend(0)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, m.Write(ctx, sampleEntry(i)))
	}

	all, err := m.Query(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	conv0, err := m.Query(ctx, &Filter{ConversationID: "conv-0"})
	require.NoError(t, err)
	assert.Len(t, conv0, 5)

	failed := false
	failures, err := m.Query(ctx, &Filter{Success: &failed})
	require.NoError(t, err)
	assert.Len(t, failures, 4) // 0, 3, 6, 9

	start := time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC)
	page, err := m.Query(ctx, &Filter{StartTime: &start, Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "e-6", page[0].ID)
	assert.Equal(t, "e-7", page[1].ID)

	empty, err := m.Query(ctx, &Filter{Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryBackend_EvictsOldestTenth(t *testing.T) {
	m := NewMemoryBackend(10)
	ctx := context.Background()
	for i := 0; i < 11; i++ {
		require.NoError(t, m.Write(ctx, sampleEntry(i)))
	}
	assert.Equal(t, 10, m.Len())

	all, err := m.Query(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "e-1", all[0].ID)
}

func TestMemoryBackend_StoresCopies(t *testing.T) {
	m := NewMemoryBackend(10)
	e := sampleEntry(1)
	require.NoError(t, m.Write(context.Background(), e))
	e.ToolName = "mutated"

	all, err := m.Query(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "list_jobs", all[0].ToolName)
}
