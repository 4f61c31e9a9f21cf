/*
Package conversation 管理每个会话的工具调用历史。

# 核心类型

  - Context：单会话状态。记录 ToolCall，按 FIFO 保持不超过 MaxContextItems 条，
    生成近期活动摘要或完整摘要，并给出是否简化响应的建议。
  - Store：会话 ID 到 Context 的进程级映射，惰性创建，按插入顺序（非 LRU）清理。

# 摘要策略

累计调用数小于 ContextSummaryTrigger 时，Summary 只描述最近 5 次调用；达到后切换到
按工具统计次数与成功率的完整摘要。完整摘要只在累计调用数为 5 的倍数时刷新，
两次刷新之间返回缓存值，最多滞后 4 次调用。这是成本与准确度的折中，保持原样。
*/
package conversation
