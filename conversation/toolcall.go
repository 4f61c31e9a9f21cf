package conversation

import (
	"maps"
	"time"
	"unicode/utf8"
)

// maxResultRunes 记录中保留的字符串结果最大长度
const maxResultRunes = 1000

// ToolCall 一次工具调用尝试的记录，创建后不可变
type ToolCall struct {
	ToolName     string         `json:"tool_name"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	Result       any            `json:"result,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	Success      bool           `json:"success"`
	ResponseTime float64        `json:"response_time"` // 秒
}

func newToolCall(tool string, params map[string]any, result any, success bool, responseTime float64, at time.Time) ToolCall {
	return ToolCall{
		ToolName:     tool,
		Parameters:   maps.Clone(params),
		Result:       truncateResult(result),
		Timestamp:    at,
		Success:      success,
		ResponseTime: responseTime,
	}
}

// truncateResult 截断过长的字符串结果，其它类型原样保存
func truncateResult(result any) any {
	s, ok := result.(string)
	if !ok || utf8.RuneCountInString(s) <= maxResultRunes {
		return result
	}
	return string([]rune(s)[:maxResultRunes]) + "..."
}
