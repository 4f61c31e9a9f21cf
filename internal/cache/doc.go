/*
包 cache 提供基于 Redis 的缓存管理与会话快照。

# 核心类型

  - Manager：缓存管理器，持有 go-redis 客户端，提供 Get/Set/Delete
    与 GetJSON/SetJSON，所有键通过 Key 统一加前缀。
  - SnapshotStore：orchestrator.Hook 实现，把每次调用记录后的会话
    摘要与使用统计异步写入 Redis，供其它副本或看板读取。
  - Snapshot：写入 Redis 的会话快照结构。

# 主要能力

  - 健康检查：后台定时 Ping，Close 后退出。
  - 快照合并：同一会话在写入前的多次事件只保留最新一份。
  - 错误语义：ErrCacheMiss 与 ErrClosed 哨兵错误。
*/
package cache
