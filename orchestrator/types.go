package orchestrator

import (
	"context"
	"time"

	"github.com/BaSui01/toolgate/conversation"
)

// Request 一次工具调用请求
type Request struct {
	ConversationID string         `json:"conversation_id"`
	Model          string         `json:"model"`
	Operation      string         `json:"operation"`
	Args           map[string]any `json:"args,omitempty"`
}

// Call 批量请求中的单个调用
type Call struct {
	Operation string         `json:"operation"`
	Args      map[string]any `json:"args,omitempty"`
}

// Response 处理结果以及供调用方调整提示词的会话信号
type Response struct {
	Operation        string   `json:"operation"`
	Result           any      `json:"result"`
	FellBack         bool     `json:"fell_back"`
	SimplifyLevel    string   `json:"simplify_level"`
	SimplifiedPrompt bool     `json:"simplified_prompt"`
	SimplifyResponse bool     `json:"simplify_response"`
	Summary          string   `json:"summary"`
	SummaryTokens    int      `json:"summary_tokens"`
	ExposedTools     []string `json:"exposed_tools"`
}

// BatchItem 批量中单个调用的结果，Error 非空时 Response 为空
type BatchItem struct {
	Operation string    `json:"operation"`
	Response  *Response `json:"response,omitempty"`
	Error     error     `json:"-"`
}

// RecordEvent 一次调用被记录进会话之后发给 Hook 的事件
type RecordEvent struct {
	ConversationID string
	Model          string
	Call           conversation.ToolCall
	FellBack       bool
	Error          string
	Summary        string
	Usage          conversation.UsagePatterns
}

// Hook 调用记录完成后的外部持久化钩子（审计、快照等）。
// 处理请求的 goroutine 同步调用 AfterRecord，实现必须自行异步化并尽快返回；
// 钩子的失败不会影响请求结果。
type Hook interface {
	AfterRecord(ctx context.Context, ev RecordEvent)
}

// HookFunc 函数适配器
type HookFunc func(ctx context.Context, ev RecordEvent)

// AfterRecord implements Hook.
func (f HookFunc) AfterRecord(ctx context.Context, ev RecordEvent) { f(ctx, ev) }

// MetricsRecorder 编排层使用的指标接口，由 internal/metrics.Collector 实现
type MetricsRecorder interface {
	RecordToolCall(operation, path string, success bool, duration time.Duration)
	RecordFallback(operation, model string)
	RecordExposureRejection(operation, model string)
	RecordSimplification(level string)
	RecordSummaryTokens(model string, tokens int)
	SetActiveConversations(n int)
	RecordEvictions(n int)
}

// TokenCounter 统计文本 token 数，由 internal/tokenizer.Counter 实现
type TokenCounter interface {
	Count(model, text string) int
}

type nopMetrics struct{}

func (nopMetrics) RecordToolCall(string, string, bool, time.Duration) {}
func (nopMetrics) RecordFallback(string, string)                      {}
func (nopMetrics) RecordExposureRejection(string, string)             {}
func (nopMetrics) RecordSimplification(string)                        {}
func (nopMetrics) RecordSummaryTokens(string, int)                    {}
func (nopMetrics) SetActiveConversations(int)                         {}
func (nopMetrics) RecordEvictions(int)                                {}
