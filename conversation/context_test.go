package conversation

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/BaSui01/toolgate/capability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func newTestContext(maxItems, trigger int) *Context {
	c := NewContext("conv-1", "test-model", capability.ContextLimits{
		MaxContextItems:         maxItems,
		ContextSummaryTrigger:   trigger,
		MaxToolCallsPerResponse: 2,
	})
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	c.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return c
}

func recordOutcomes(c *Context, outcomes ...bool) {
	for i, ok := range outcomes {
		c.Record(fmt.Sprintf("tool_%d", i), nil, "r", ok, 0.1)
	}
}

func TestContext_RetentionKeepsMostRecentInOrder(t *testing.T) {
	c := newTestContext(4, 100)

	for i := 0; i < 9; i++ {
		c.Record(fmt.Sprintf("op_%d", i), map[string]any{"i": i}, i, true, 0.5)
	}

	calls := c.Calls()
	require.Len(t, calls, 4)
	for i, call := range calls {
		assert.Equal(t, fmt.Sprintf("op_%d", i+5), call.ToolName)
	}
	assert.Equal(t, 9, c.TotalRecorded())
	assert.True(t, calls[0].Timestamp.Before(calls[3].Timestamp))
}

func TestContext_ZeroCapacityRetainsNothing(t *testing.T) {
	c := newTestContext(0, 0)
	c.Record("op", nil, nil, true, 0)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 1, c.TotalRecorded())
}

func TestContext_RecordCopiesParameters(t *testing.T) {
	c := newTestContext(5, 100)
	params := map[string]any{"name": "web"}
	c.Record("create_inventory", params, nil, true, 0)

	params["name"] = "mutated"
	assert.Equal(t, "web", c.Calls()[0].Parameters["name"])
}

func TestContext_RecordTruncatesLongStringResult(t *testing.T) {
	c := newTestContext(5, 100)
	c.Record("get_job_output", nil, strings.Repeat("x", 5000), true, 0)

	result, ok := c.Calls()[0].Result.(string)
	require.True(t, ok)
	assert.Equal(t, maxResultRunes+3, len(result))
	assert.True(t, strings.HasSuffix(result, "..."))
}

func TestContext_Summary_RecentActivityBeforeTrigger(t *testing.T) {
	c := newTestContext(10, 8)
	assert.Equal(t, "No recent activity", c.Summary())

	recordOutcomes(c, true, false, true, true, true, false, true)

	s := c.Summary()
	assert.True(t, strings.HasPrefix(s, "Recent activity: "))
	// 只覆盖最近 5 次
	assert.NotContains(t, s, "tool_0")
	assert.NotContains(t, s, "tool_1 ")
	assert.Contains(t, s, "tool_2 succeeded")
	assert.Contains(t, s, "tool_5 failed")
	assert.Contains(t, s, "tool_6 succeeded")
}

func TestContext_Summary_SwitchesToFullAtTrigger(t *testing.T) {
	c := newTestContext(10, 6)

	for i := 0; i < 5; i++ {
		c.Record("list_jobs", nil, nil, i != 0, 0.1)
	}
	assert.True(t, strings.HasPrefix(c.Summary(), "Recent activity: "))

	c.Record("get_job", nil, nil, true, 0.1)
	s := c.Summary()
	assert.Equal(t, "Conversation summary (6 calls total): list_jobs: 5 calls, 80% success; get_job: 1 calls, 100% success", s)
}

func TestContext_Summary_RefreshesOnlyEveryFifthCall(t *testing.T) {
	c := newTestContext(10, 6)
	for i := 0; i < 6; i++ {
		c.Record("list_jobs", nil, nil, true, 0.1)
	}
	first := c.Summary()
	assert.Contains(t, first, "(6 calls total)")

	// 7..9：缓存未到刷新点，保持旧值
	for i := 7; i <= 9; i++ {
		c.Record("get_job", nil, nil, false, 0.1)
		assert.Equal(t, first, c.Summary(), "call %d should reuse cached summary", i)
	}

	// 10：5 的倍数，刷新
	c.Record("get_job", nil, nil, false, 0.1)
	refreshed := c.Summary()
	assert.Contains(t, refreshed, "(10 calls total)")
	assert.Contains(t, refreshed, "get_job: 4 calls, 0% success")
}

func TestContext_ShouldSimplifyResponse(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []bool
		want     bool
	}{
		{name: "无调用", outcomes: nil, want: false},
		{name: "不足 3 次即使全部失败", outcomes: []bool{false, false}, want: false},
		{name: "成功率 0.4", outcomes: []bool{true, true, false, false, false}, want: true},
		{name: "成功率 0.8", outcomes: []bool{true, true, true, true, false}, want: false},
		{name: "恰好 0.6 不简化", outcomes: []bool{true, true, true, false, false}, want: false},
		{name: "只看最近 5 次", outcomes: []bool{false, false, false, true, true, true, true, true}, want: false},
		{name: "3 次中 1 次成功", outcomes: []bool{true, false, false}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestContext(10, 100)
			recordOutcomes(c, tt.outcomes...)
			assert.Equal(t, tt.want, c.ShouldSimplifyResponse())
		})
	}
}

func TestContext_UsagePatterns(t *testing.T) {
	c := newTestContext(10, 100)

	empty := c.UsagePatterns()
	assert.Equal(t, 0, empty.TotalCalls)
	assert.Equal(t, 0, empty.UniqueTools)
	assert.Zero(t, empty.SuccessRate)
	assert.Zero(t, empty.AverageResponseTime)
	assert.Empty(t, empty.MostUsedTools)

	c.Record("list_jobs", nil, nil, true, 1.0)
	c.Record("list_jobs", nil, nil, true, 2.0)
	c.Record("list_jobs", nil, nil, false, 3.0)
	c.Record("get_job", nil, nil, true, 1.0)
	c.Record("get_job", nil, nil, true, 1.0)
	c.Record("list_hosts", nil, nil, true, 1.0)
	c.Record("add_host", nil, nil, false, 1.0)

	u := c.UsagePatterns()
	assert.Equal(t, 7, u.TotalCalls)
	assert.Equal(t, 4, u.UniqueTools)
	assert.InDelta(t, 5.0/7.0, u.SuccessRate, 1e-9)
	assert.InDelta(t, 10.0/7.0, u.AverageResponseTime, 1e-9)
	assert.Equal(t, []ToolUsage{
		{Name: "list_jobs", Count: 3},
		{Name: "get_job", Count: 2},
		{Name: "add_host", Count: 1},
	}, u.MostUsedTools)
}

func TestContext_Reset(t *testing.T) {
	c := newTestContext(10, 2)
	recordOutcomes(c, true, true, true)
	require.Contains(t, c.Summary(), "Conversation summary")

	c.Reset()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.TotalRecorded())
	assert.Equal(t, "No recent activity", c.Summary())

	// 重置后缓存不会泄漏旧摘要
	recordOutcomes(c, false, false)
	assert.Contains(t, c.Summary(), "(2 calls total)")
}
