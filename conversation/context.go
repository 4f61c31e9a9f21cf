package conversation

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BaSui01/toolgate/capability"
)

// 摘要刷新节奏：进入完整摘要模式后，仅当累计调用数是它的倍数时重算
const summaryRefreshEvery = 5

// 近期活动摘要覆盖的调用数，也是简化判断的窗口
const recentWindow = 5

// 低于该成功率时建议简化响应
const simplifyThreshold = 0.6

// ToolUsage 工具调用次数
type ToolUsage struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UsagePatterns 会话的工具使用统计
type UsagePatterns struct {
	TotalCalls          int         `json:"total_calls"`
	UniqueTools         int         `json:"unique_tools"`
	SuccessRate         float64     `json:"success_rate"`
	MostUsedTools       []ToolUsage `json:"most_used_tools"`
	AverageResponseTime float64     `json:"average_response_time"`
}

// Context 单个会话的可变状态。
// 所有方法都持有会话自身的锁，同一会话的并发调用不会破坏 FIFO 淘汰或摘要缓存。
type Context struct {
	mu sync.Mutex

	id              string
	modelName       string
	maxContextItems int
	summaryTrigger  int

	calls         []ToolCall
	totalRecorded int
	cachedSummary *string

	createdAt    time.Time
	lastActivity time.Time
	now          func() time.Time
}

// NewContext 按给定限制创建会话上下文
func NewContext(id, model string, limits capability.ContextLimits) *Context {
	now := time.Now()
	return &Context{
		id:              id,
		modelName:       model,
		maxContextItems: limits.MaxContextItems,
		summaryTrigger:  limits.ContextSummaryTrigger,
		calls:           make([]ToolCall, 0, max(limits.MaxContextItems, 0)),
		createdAt:       now,
		lastActivity:    now,
		now:             time.Now,
	}
}

// ID 会话 ID
func (c *Context) ID() string { return c.id }

// ModelName 创建会话时的模型名
func (c *Context) ModelName() string { return c.modelName }

// MaxContextItems 保留上限
func (c *Context) MaxContextItems() int { return c.maxContextItems }

// SummaryTrigger 切换到完整摘要的累计调用数
func (c *Context) SummaryTrigger() int { return c.summaryTrigger }

// CreatedAt 创建时间
func (c *Context) CreatedAt() time.Time { return c.createdAt }

// LastActivity 最近一次记录或重置的时间
func (c *Context) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Record 追加一条调用记录，超出上限时立即从最旧一端淘汰
func (c *Context) Record(tool string, params map[string]any, result any, success bool, responseTime float64) ToolCall {
	c.mu.Lock()
	defer c.mu.Unlock()

	at := c.now()
	call := newToolCall(tool, params, result, success, responseTime, at)
	c.calls = append(c.calls, call)
	c.totalRecorded++
	c.lastActivity = at

	if over := len(c.calls) - max(c.maxContextItems, 0); over > 0 {
		kept := make([]ToolCall, len(c.calls)-over, cap(c.calls))
		copy(kept, c.calls[over:])
		c.calls = kept
	}
	return call
}

// Calls 返回保留中的调用副本（最旧在前）
func (c *Context) Calls() []ToolCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ToolCall, len(c.calls))
	copy(out, c.calls)
	return out
}

// Len 保留中的调用数
func (c *Context) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// TotalRecorded 自创建或上次重置以来累计记录的调用数（含已淘汰的）
func (c *Context) TotalRecorded() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalRecorded
}

// Summary 返回会话摘要。
// 累计调用数未达触发值时返回最近 5 次调用的近期活动摘要；
// 之后返回完整摘要，缓存只在累计调用数为 5 的倍数时刷新，最多滞后 4 次调用。
func (c *Context) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.totalRecorded < c.summaryTrigger {
		return recentActivity(c.calls)
	}

	if c.cachedSummary == nil || c.totalRecorded%summaryRefreshEvery == 0 {
		s := fullSummary(c.calls, c.totalRecorded)
		c.cachedSummary = &s
	}
	return *c.cachedSummary
}

// ShouldSimplifyResponse 最近 5 次调用成功率低于 0.6 时返回 true；不足 3 次调用返回 false
func (c *Context) ShouldSimplifyResponse() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.calls) < 3 {
		return false
	}
	recent := tail(c.calls, recentWindow)
	return successRate(recent) < simplifyThreshold
}

// UsagePatterns 统计保留中的调用
func (c *Context) UsagePatterns() UsagePatterns {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := len(c.calls)
	if total == 0 {
		return UsagePatterns{MostUsedTools: []ToolUsage{}}
	}

	var rtSum float64
	for _, call := range c.calls {
		rtSum += call.ResponseTime
	}
	usage := countByTool(c.calls)

	top := usage
	if len(top) > 3 {
		top = top[:3]
	}

	return UsagePatterns{
		TotalCalls:          total,
		UniqueTools:         len(usage),
		SuccessRate:         successRate(c.calls),
		MostUsedTools:       top,
		AverageResponseTime: rtSum / float64(total),
	}
}

// Reset 原地清空历史与缓存摘要，会话本身仍留在存储中
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = make([]ToolCall, 0, max(c.maxContextItems, 0))
	c.totalRecorded = 0
	c.cachedSummary = nil
	c.lastActivity = c.now()
}

// =============================================================================
// 摘要辅助函数
// =============================================================================

func tail(calls []ToolCall, n int) []ToolCall {
	if len(calls) <= n {
		return calls
	}
	return calls[len(calls)-n:]
}

func successRate(calls []ToolCall) float64 {
	if len(calls) == 0 {
		return 0
	}
	ok := 0
	for _, call := range calls {
		if call.Success {
			ok++
		}
	}
	return float64(ok) / float64(len(calls))
}

func recentActivity(calls []ToolCall) string {
	recent := tail(calls, recentWindow)
	if len(recent) == 0 {
		return "No recent activity"
	}
	parts := make([]string, len(recent))
	for i, call := range recent {
		status := "succeeded"
		if !call.Success {
			status = "failed"
		}
		parts[i] = call.ToolName + " " + status
	}
	return "Recent activity: " + strings.Join(parts, ", ")
}

type toolStats struct {
	calls     int
	successes int
}

func fullSummary(calls []ToolCall, total int) string {
	stats := make(map[string]*toolStats)
	for _, call := range calls {
		s, ok := stats[call.ToolName]
		if !ok {
			s = &toolStats{}
			stats[call.ToolName] = s
		}
		s.calls++
		if call.Success {
			s.successes++
		}
	}

	parts := make([]string, 0, len(stats))
	for _, u := range countByTool(calls) {
		s := stats[u.Name]
		pct := float64(s.successes) / float64(s.calls) * 100
		parts = append(parts, fmt.Sprintf("%s: %d calls, %.0f%% success", u.Name, s.calls, pct))
	}
	return fmt.Sprintf("Conversation summary (%d calls total): %s", total, strings.Join(parts, "; "))
}

// countByTool 按调用次数降序、同次数按名称升序
func countByTool(calls []ToolCall) []ToolUsage {
	counts := make(map[string]int)
	for _, call := range calls {
		counts[call.ToolName]++
	}
	out := make([]ToolUsage, 0, len(counts))
	for name, n := range counts {
		out = append(out, ToolUsage{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
