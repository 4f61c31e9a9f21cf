package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BaSui01/toolgate/config"
	"github.com/BaSui01/toolgate/internal/tlsutil"
	"github.com/BaSui01/toolgate/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPInvoker 通过 REST API 调用外部自动化平台，实现 fallback.Invoker
type HTTPInvoker struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	routes  map[string]Route
	retry   RetryPolicy
	logger  *zap.Logger
}

// Option 配置选项
type Option func(*HTTPInvoker)

// WithHTTPClient 替换 HTTP 客户端
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPInvoker) {
		h.client = c
	}
}

// WithRoute 登记或替换某个操作的接口映射
func WithRoute(operation string, r Route) Option {
	return func(h *HTTPInvoker) {
		h.routes[operation] = r
	}
}

// WithRetryPolicy 替换重试策略
func WithRetryPolicy(p RetryPolicy) Option {
	return func(h *HTTPInvoker) {
		h.retry = p.normalized()
	}
}

// New 按平台配置创建调用器
func New(cfg config.PlatformConfig, logger *zap.Logger, opts ...Option) (*HTTPInvoker, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("platform base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid platform base url: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &HTTPInvoker{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		routes:  DefaultRoutes(),
		retry:   RetryPolicyFrom(cfg),
		logger:  logger.With(zap.String("component", "platform_invoker")),
	}
	if cfg.RateLimitRPS > 0 {
		burst := max(cfg.RateLimitBurst, 1)
		h.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.client == nil {
		client, err := tlsutil.SecureHTTPClient(cfg.Timeout, tlsutil.ClientOptions{
			CAFile:             cfg.CAFile,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		})
		if err != nil {
			return nil, err
		}
		h.client = client
	}
	return h, nil
}

// Operations 返回已登记映射的操作数
func (h *HTTPInvoker) Operations() int {
	return len(h.routes)
}

// Invoke implements fallback.Invoker.
// GET 路由遇到可重试错误时按 RetryPolicy 退避重试，最终错误原样返回。
func (h *HTTPInvoker) Invoke(ctx context.Context, operation string, args map[string]any) (any, error) {
	route, ok := h.routes[operation]
	if !ok {
		return nil, types.NewError(types.ErrInvalidRequest, "no platform route for operation").
			WithOperation(operation).WithHTTPStatus(http.StatusBadRequest)
	}

	out, err := h.invokeOnce(ctx, operation, route, args)
	if err == nil || !h.retry.appliesTo(route) {
		return out, err
	}

	for attempt := 1; attempt <= h.retry.MaxRetries && types.IsRetryable(err); attempt++ {
		delay := h.retry.delay(attempt)
		h.logger.Debug("retrying platform call",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			h.logger.Debug("retry abandoned, context done",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.NamedError("context_error", ctx.Err()),
			)
			return nil, err
		case <-timer.C:
		}

		if out, err = h.invokeOnce(ctx, operation, route, args); err == nil {
			return out, nil
		}
	}
	return nil, err
}

func (h *HTTPInvoker) invokeOnce(ctx context.Context, operation string, route Route, args map[string]any) (any, error) {
	req, err := h.buildRequest(ctx, operation, route, args)
	if err != nil {
		return nil, err
	}

	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, types.NewError(types.ErrRateLimited, "platform rate limit wait aborted").
				WithOperation(operation).WithRetryable(true).WithCause(err)
		}
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, transportError(operation, err)
	}
	defer resp.Body.Close()

	h.logger.Debug("platform call finished",
		zap.String("operation", operation),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newInvocationError(operation, resp.StatusCode, readErrMsg(resp.Body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(operation, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{"status": "success"}, nil
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		// get_job_output 等接口可能返回纯文本
		return string(data), nil
	}
	return out, nil
}

func (h *HTTPInvoker) buildRequest(ctx context.Context, operation string, route Route, args map[string]any) (*http.Request, error) {
	path, rest, err := route.expand(args)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, err.Error()).
			WithOperation(operation).WithHTTPStatus(http.StatusBadRequest)
	}

	query := url.Values{}
	for k, v := range route.Query {
		query.Set(k, v)
	}

	var body io.Reader
	switch route.Method {
	case http.MethodGet, http.MethodDelete:
		for k, v := range rest {
			query.Set(k, pathValue(v))
		}
	default:
		payload, err := json.Marshal(rest)
		if err != nil {
			return nil, types.NewError(types.ErrInvalidRequest, "arguments are not JSON encodable").
				WithOperation(operation).WithCause(err)
		}
		body = bytes.NewReader(payload)
	}

	target := h.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, route.Method, target, body)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to build platform request").
			WithOperation(operation).WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	return req, nil
}

func transportError(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return types.NewError(types.ErrUpstreamTimeout, "platform request timed out").
			WithOperation(operation).WithHTTPStatus(http.StatusGatewayTimeout).
			WithRetryable(true).WithCause(err)
	}
	return types.NewError(types.ErrToolInvocation, "platform request failed").
		WithOperation(operation).WithHTTPStatus(http.StatusBadGateway).
		WithRetryable(true).WithCause(err)
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// readErrMsg 读取错误响应，优先取平台的 detail 字段
func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	var errResp struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Detail != "" {
		return errResp.Detail
	}
	return strings.TrimSpace(string(data))
}
