// Package tlsutil 集中管理出站 HTTP 客户端的 TLS 配置（TLS 1.2+，仅 AEAD 套件），
// 并支持为自建自动化平台追加 CA 证书。
package tlsutil
