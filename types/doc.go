/*
Package types 提供 toolgate 的全局共享类型定义。

types 是最底层的公共包，不依赖任何内部包。目前只承载结构化错误体系：

  - Error / ErrorCode：错误码、HTTP 状态码、Retryable 与关联操作名
  - IsRetryable / GetErrorCode / IsCode：支持 errors.As 的错误链工具
*/
package types
