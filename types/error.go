package types

import (
	"errors"
	"fmt"
)

// ErrorCode 统一错误码
type ErrorCode string

// 请求层错误码
const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// 编排层错误码
const (
	// ErrContextNotFound 会话上下文未创建就被访问，属于调用方编程错误，不应重试
	ErrContextNotFound ErrorCode = "CONTEXT_NOT_FOUND"
	// ErrToolNotExposed 操作不在当前模型/会话进度下暴露的工具集合中
	ErrToolNotExposed ErrorCode = "TOOL_NOT_EXPOSED"
	// ErrBatchTooLarge 单次批量调用超过模型允许的工具调用数
	ErrBatchTooLarge ErrorCode = "BATCH_TOO_LARGE"
	// ErrToolInvocation 外部自动化平台调用失败
	ErrToolInvocation ErrorCode = "TOOL_INVOCATION"
	// ErrUpstreamTimeout 外部自动化平台超时
	ErrUpstreamTimeout ErrorCode = "UPSTREAM_TIMEOUT"
)

// Error 带错误码与元数据的结构化错误
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Operation  string    `json:"operation,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError 创建错误
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause 附加底层错误
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus 设置 HTTP 状态码
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable 标记是否可重试
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithOperation 设置关联的操作名
func (e *Error) WithOperation(operation string) *Error {
	e.Operation = operation
	return e
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode 提取错误码，非结构化错误返回空字符串
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode 判断错误链中是否包含指定错误码
func IsCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}
