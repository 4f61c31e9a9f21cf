// Package telemetry 封装 OpenTelemetry SDK 初始化，
// 为 ToolGate 集中配置 TracerProvider、MeterProvider 与 W3C 传播器。
package telemetry
