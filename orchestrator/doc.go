/*
包 orchestrator 把能力注册表、工具暴露引擎、会话上下文存储、回退编排与响应简化
串成一次完整的工具调用处理流程。

# 处理流程

一次请求携带（会话 ID、模型名、操作名、参数）：

 1. 取得或创建会话上下文；
 2. 检查操作在当前会话进度下是否对该模型暴露，未暴露时返回 TOOL_NOT_EXPOSED；
 3. 由回退编排决定执行预设计划还是调用真实的 Invoker；
 4. 把结果（成功/失败、耗时）记录进会话上下文，并通知 Hook（审计、快照）；
 5. 按模型能力简化结果后返回，同时附带会话摘要与简化建议。

Invoker 返回的错误原样透传给调用方，失败同样会被记录进会话历史。

# 批量与清理

HandleBatch 在同一会话内并发执行多个调用，并发度受模型的 max_concurrent_tools 限制，
批量大小超过 max_tool_calls_per_response 时整体拒绝。StartJanitor 周期性地按插入顺序
清理超出上限的会话。
*/
package orchestrator
