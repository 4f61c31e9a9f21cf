/*
包 metrics 提供基于 Prometheus 的指标采集，覆盖 HTTP 请求、
工具调用编排、会话存储与外部存储写入。

Collector 通过 promauto 注册全部指标，按 namespace 隔离：

  - HTTP 指标：请求总数、耗时、请求/响应体大小，状态码归类为 2xx/3xx/4xx/5xx。
  - 工具调用指标：按 operation/status/path 统计调用次数与耗时，
    预设回退次数、未暴露拒绝次数、按力度统计的响应简化次数、摘要 token 分布。
  - 会话指标：内存中的会话数 Gauge 与清理淘汰计数。
  - 外部存储指标：审计/快照写入结果、数据库连接数与查询耗时。
*/
package metrics
