// Package tokenizer 统计提示文本（例如会话摘要）的 token 数。
// 优先使用 tiktoken 精确计数，编码表不可用时退回字符估算。
package tokenizer
