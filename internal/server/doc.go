/*
包 server 管理 HTTP 监听的生命周期：非阻塞启动、异步错误通道与
带超时的优雅关闭。ToolGate 为 API 与 /metrics 各启动一个 Manager。
*/
package server
