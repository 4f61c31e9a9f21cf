// Package exposure 实现渐进式工具暴露：按模型能力画像和会话长度，
// 从 basic 分层开始逐步并入更多分层，并把结果截断到模型的 MaxTools 上限。
package exposure
