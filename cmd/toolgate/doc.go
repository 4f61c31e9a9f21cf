/*
Package main 提供 ToolGate 服务端程序入口。

# 概述

cmd/toolgate 位于大模型与自动化平台之间：根据模型能力与会话长度
决定暴露哪些工具，按需改写平台响应，并在弱模型上以多步回退计划
替代复杂操作。程序提供 HTTP API 服务、审计库迁移、健康检查和版本查询。

# 核心类型

  - Server：组装编排服务、审计、快照与双端口 HTTP 服务，负责优雅关闭
  - Middleware：HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve、migrate、version、health
  - 中间件链：Recovery、RequestID、OTelTracing、SecurityHeaders、
    RequestLogger、MetricsMiddleware、RateLimiter（基于 IP）
  - 配置监听：配置文件变更后重新加载，日志级别即时生效
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
