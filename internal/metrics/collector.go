// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 工具调用指标
	toolCallsTotal     *prometheus.CounterVec
	toolCallDuration   *prometheus.HistogramVec
	fallbacksTotal     *prometheus.CounterVec
	exposureRejections *prometheus.CounterVec
	simplifications    *prometheus.CounterVec
	summaryTokens      *prometheus.HistogramVec

	// 会话指标
	conversationsActive  prometheus.Gauge
	conversationsEvicted prometheus.Counter

	// 外部存储指标
	hookWrites      *prometheus.CounterVec
	dbConnections   *prometheus.GaugeVec
	dbQueryDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// 工具调用指标
	c.toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls handled by the orchestrator",
		},
		[]string{"operation", "status", "path"}, // path: invoke, fallback
	)

	c.toolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool call duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation", "path"},
	)

	c.fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Total number of operations answered with a canned fallback plan",
		},
		[]string{"operation", "model"},
	)

	c.exposureRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exposure_rejections_total",
			Help:      "Total number of calls rejected because the tool was not exposed",
		},
		[]string{"operation", "model"},
	)

	c.simplifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_simplifications_total",
			Help:      "Total number of simplified tool responses",
		},
		[]string{"level"},
	)

	c.summaryTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversation_summary_tokens",
			Help:      "Token size of conversation summaries returned to callers",
			Buckets:   prometheus.ExponentialBuckets(8, 2, 8),
		},
		[]string{"model"},
	)

	// 会话指标
	c.conversationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conversations_active",
			Help:      "Number of conversation contexts held in memory",
		},
	)

	c.conversationsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversations_evicted_total",
			Help:      "Total number of conversation contexts removed by cleanup",
		},
	)

	// 外部存储指标
	c.hookWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hook_writes_total",
			Help:      "Total number of audit and snapshot writes",
		},
		[]string{"hook", "status"},
	)

	c.dbConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections",
			Help:      "Number of database connections by state",
		},
		[]string{"database", "state"}, // state: open, idle, in_use
	)

	c.dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"database", "operation"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// 🔧 工具调用指标记录
// =============================================================================

// RecordToolCall 记录一次工具调用，path 为 invoke 或 fallback
func (c *Collector) RecordToolCall(operation, path string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	c.toolCallsTotal.WithLabelValues(operation, status, path).Inc()
	c.toolCallDuration.WithLabelValues(operation, path).Observe(duration.Seconds())
}

// RecordFallback 记录一次预设回退
func (c *Collector) RecordFallback(operation, model string) {
	c.fallbacksTotal.WithLabelValues(operation, model).Inc()
}

// RecordExposureRejection 记录一次因工具未暴露而拒绝的调用
func (c *Collector) RecordExposureRejection(operation, model string) {
	c.exposureRejections.WithLabelValues(operation, model).Inc()
}

// RecordSimplification 记录一次响应简化
func (c *Collector) RecordSimplification(level string) {
	c.simplifications.WithLabelValues(level).Inc()
}

// RecordSummaryTokens 记录摘要的 token 数
func (c *Collector) RecordSummaryTokens(model string, tokens int) {
	c.summaryTokens.WithLabelValues(model).Observe(float64(tokens))
}

// =============================================================================
// 💬 会话指标记录
// =============================================================================

// SetActiveConversations 设置当前会话数
func (c *Collector) SetActiveConversations(n int) {
	c.conversationsActive.Set(float64(n))
}

// RecordEvictions 记录被清理的会话数
func (c *Collector) RecordEvictions(n int) {
	c.conversationsEvicted.Add(float64(n))
}

// =============================================================================
// 🗄️ 外部存储指标记录
// =============================================================================

// RecordHookWrite 记录审计或快照写入结果
func (c *Collector) RecordHookWrite(hook string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.hookWrites.WithLabelValues(hook, status).Inc()
}

// RecordDBConnections 记录数据库连接数
func (c *Collector) RecordDBConnections(database string, open, idle, inUse int) {
	c.dbConnections.WithLabelValues(database, "open").Set(float64(open))
	c.dbConnections.WithLabelValues(database, "idle").Set(float64(idle))
	c.dbConnections.WithLabelValues(database, "in_use").Set(float64(inUse))
}

// RecordDBQuery 记录数据库查询
func (c *Collector) RecordDBQuery(database, operation string, duration time.Duration) {
	c.dbQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
