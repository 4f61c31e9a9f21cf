/*
包 database 负责打开审计数据库并管理其连接池。

Open 按配置的驱动（postgres、mysql、sqlite）选择 GORM 方言；
PoolManager 设置连接池参数，后台定时探活并把连接统计交给
StatsObserver（通常是指标采集器），Close 时停止健康检查。
*/
package database
