// Package audit 持久化工具调用的审计记录。
//
// AsyncLogger 通过有界队列和工作协程把记录写入一个或多个 Backend，
// 队列满时丢弃记录而不是阻塞请求。GormStore 基于 gorm 支持 PostgreSQL、MySQL 与 SQLite，
// MemoryBackend 用于未配置数据库的部署与测试。Hook 把编排层的调用记录事件转成审计记录。
package audit
