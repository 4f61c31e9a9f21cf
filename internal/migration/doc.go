/*
包 migration 管理审计表的 Schema 迁移，基于 golang-migrate。

各方言（postgres、mysql、sqlite）的 SQL 文件通过 embed 内嵌，
Migrator 复用应用已打开的 *sql.DB，CLI 为 `toolgate migrate`
子命令提供 up、down、version、status 的终端输出。
*/
package migration
