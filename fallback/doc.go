// Package fallback 在模型能力不足以可靠完成复杂操作时，
// 用无副作用的预设步骤计划替代真实的工具调用。
//
// 替代只发生在调用之前：一旦真实调用器被执行，它返回的任何错误都原样透传给调用方。
package fallback
