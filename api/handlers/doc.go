/*
Package handlers 提供 ToolGate HTTP API 的请求处理器实现。

# 核心类型

  - OrchestrationHandler：能力查询、工具暴露、单次/批量调用、会话摘要与重置、
    响应简化、操作指引，以及可选的会话快照与审计查询
  - HealthHandler：/health、/healthz、/ready、/version
  - Response / ErrorInfo：统一 JSON 响应结构
  - ResponseWriter：捕获状态码，供中间件记录日志与指标

# 错误映射

CONTEXT_NOT_FOUND → 404，TOOL_NOT_EXPOSED → 403，TOOL_INVOCATION → 502，
INVALID_REQUEST 与 BATCH_TOO_LARGE → 400，RATE_LIMITED → 429。
工具调用方返回的非结构化错误按 TOOL_INVOCATION 处理。
*/
package handlers
