// Package config 提供 ToolGate 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → TOOLGATE_* 环境变量 的顺序加载，
// 能力表与工具分层可在 orchestrator 段整体替换。
// Watcher 轮询配置文件并在变更后重新加载，供运行时调整日志级别等字段。
package config
