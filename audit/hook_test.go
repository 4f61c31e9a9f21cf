package audit

import (
	"context"
	"testing"
	"time"

	"github.com/BaSui01/toolgate/conversation"
	"github.com/BaSui01/toolgate/internal/ctxkeys"
	"github.com/BaSui01/toolgate/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryFromEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := ctxkeys.WithRequestID(context.Background(), "req-7")

	e := EntryFromEvent(ctx, orchestrator.RecordEvent{
		ConversationID: "c",
		Model:          "gpt-4o",
		Call: conversation.ToolCall{
			ToolName:     "create_inventory",
			Parameters:   map[string]any{"name": "web"},
			Result:       map[string]any{"id": 3},
			Timestamp:    at,
			Success:      true,
			ResponseTime: 0.25,
		},
	})

	assert.Equal(t, EventToolCall, e.EventType)
	assert.Equal(t, "req-7", e.RequestID)
	assert.Empty(t, e.TraceID)
	assert.Equal(t, at, e.Timestamp)
	assert.Equal(t, `{"name":"web"}`, e.Arguments)
	assert.Equal(t, `{"id":3}`, e.Result)
	assert.Equal(t, int64(250), e.DurationMs)
	assert.True(t, e.Success)
}

func TestEntryFromEvent_FailureAndFallback(t *testing.T) {
	failed := EntryFromEvent(context.Background(), orchestrator.RecordEvent{
		Call:  conversation.ToolCall{ToolName: "get_job", Result: "boom"},
		Error: "boom",
	})
	assert.Empty(t, failed.Result)
	assert.Empty(t, failed.Arguments)
	assert.Equal(t, "boom", failed.Error)

	fb := EntryFromEvent(context.Background(), orchestrator.RecordEvent{
		Call:     conversation.ToolCall{ToolName: "create_credential", Success: true},
		FellBack: true,
	})
	assert.Equal(t, EventFallback, fb.EventType)
}

func TestHook_WritesThroughAsyncLogger(t *testing.T) {
	mem := NewMemoryBackend(0)
	al := NewAsyncLogger(LoggerConfig{Backends: []Backend{mem}}, nil)

	var h orchestrator.Hook = NewHook(al)
	h.AfterRecord(context.Background(), orchestrator.RecordEvent{
		ConversationID: "c",
		Model:          "mistral:7b",
		Call:           conversation.ToolCall{ToolName: "list_jobs", Success: true},
	})
	require.NoError(t, al.Close())

	entries, err := mem.Query(context.Background(), &Filter{ConversationID: "c"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "list_jobs", entries[0].ToolName)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())
}
