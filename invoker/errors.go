package invoker

import (
	"fmt"
	"net/http"

	"github.com/BaSui01/toolgate/types"
)

// maxErrorBody 错误响应体保留的最大字节数
const maxErrorBody = 2048

// InvocationError 自动化平台返回非 2xx
type InvocationError struct {
	Operation  string
	StatusCode int
	Body       string

	cause *types.Error
}

func newInvocationError(operation string, status int, body string) *InvocationError {
	e := types.NewError(types.ErrToolInvocation, fmt.Sprintf("%s returned HTTP %d", operation, status)).
		WithHTTPStatus(http.StatusBadGateway).
		WithOperation(operation).
		WithRetryable(status == http.StatusTooManyRequests || status >= 500)
	return &InvocationError{
		Operation:  operation,
		StatusCode: status,
		Body:       body,
		cause:      e,
	}
}

// Error implements error.
func (e *InvocationError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: platform returned HTTP %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: platform returned HTTP %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Unwrap 暴露 TOOL_INVOCATION 结构化错误，便于 types.GetErrorCode 与重试判断
func (e *InvocationError) Unwrap() error {
	return e.cause
}
