package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BaSui01/toolgate/internal/ctxkeys"
	"github.com/BaSui01/toolgate/orchestrator"
)

// Hook 把编排层的调用记录转换为审计记录并异步写入
type Hook struct {
	logger *AsyncLogger
}

// NewHook 创建审计钩子
func NewHook(logger *AsyncLogger) *Hook {
	return &Hook{logger: logger}
}

// AfterRecord implements orchestrator.Hook.
func (h *Hook) AfterRecord(ctx context.Context, ev orchestrator.RecordEvent) {
	h.logger.LogAsync(EntryFromEvent(ctx, ev))
}

// EntryFromEvent 构造审计记录；参数与结果以 JSON 文本保存
func EntryFromEvent(ctx context.Context, ev orchestrator.RecordEvent) *Entry {
	eventType := EventToolCall
	if ev.FellBack {
		eventType = EventFallback
	}

	entry := &Entry{
		Timestamp:      ev.Call.Timestamp,
		EventType:      eventType,
		ConversationID: ev.ConversationID,
		Model:          ev.Model,
		ToolName:       ev.Call.ToolName,
		Arguments:      encodeJSON(ev.Call.Parameters),
		Error:          ev.Error,
		Success:        ev.Call.Success,
		DurationMs:     time.Duration(ev.Call.ResponseTime * float64(time.Second)).Milliseconds(),
	}
	if ev.Error == "" {
		entry.Result = encodeJSON(ev.Call.Result)
	}
	if id, ok := ctxkeys.RequestID(ctx); ok {
		entry.RequestID = id
	}
	if id, ok := ctxkeys.TraceID(ctx); ok {
		entry.TraceID = id
	}
	return entry
}

func encodeJSON(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	if string(data) == "null" {
		return ""
	}
	return string(data)
}
