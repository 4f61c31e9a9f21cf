// Package invoker 把编排层的操作名映射为自动化平台（AWX 风格 /api/v2）的 REST 调用。
//
// HTTPInvoker 负责路径参数展开、Bearer 认证、出站限流与 JSON 解码；
// 非 2xx 响应返回 *InvocationError，其错误链上带有 TOOL_INVOCATION 错误码。
// 只读（GET）操作遇到可重试错误时按 RetryPolicy 指数退避重试。
package invoker
