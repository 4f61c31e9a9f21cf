// Package simplify 按模型工具容量压缩工具返回值，让小模型只看到关键字段。
package simplify
