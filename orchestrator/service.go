package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/BaSui01/toolgate/capability"
	"github.com/BaSui01/toolgate/conversation"
	"github.com/BaSui01/toolgate/exposure"
	"github.com/BaSui01/toolgate/fallback"
	"github.com/BaSui01/toolgate/simplify"
	"github.com/BaSui01/toolgate/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/BaSui01/toolgate/orchestrator"

const (
	pathInvoke   = "invoke"
	pathFallback = "fallback"
)

// Service 编排层门面，可并发使用
type Service struct {
	registry   *capability.Registry
	engine     *exposure.Engine
	store      *conversation.Store
	fallback   *fallback.Orchestrator
	simplifier *simplify.Simplifier
	invoker    fallback.Invoker

	hooks   []Hook
	metrics MetricsRecorder
	tokens  TokenCounter
	onEvict func(ids []string)
	onReset func(id string)

	tracer       trace.Tracer
	callCounter  metric.Int64Counter
	callDuration metric.Float64Histogram

	logger     *zap.Logger
	baseLogger *zap.Logger
	now        func() time.Time
}

// Option 配置选项
type Option func(*Service)

// WithHooks 追加调用记录钩子
func WithHooks(hooks ...Hook) Option {
	return func(s *Service) { s.hooks = append(s.hooks, hooks...) }
}

// WithMetrics 设置指标记录器
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTokenCounter 设置摘要 token 计数器
func WithTokenCounter(c TokenCounter) Option {
	return func(s *Service) { s.tokens = c }
}

// WithEvictionHandler 会话被清理淘汰后回调（例如删除外部快照）
func WithEvictionHandler(fn func(ids []string)) Option {
	return func(s *Service) { s.onEvict = fn }
}

// WithResetHandler 会话被重置后回调
func WithResetHandler(fn func(id string)) Option {
	return func(s *Service) { s.onReset = fn }
}

// WithFallbackOptions 传给回退编排器的选项
func WithFallbackOptions(opts ...fallback.Option) Option {
	return func(s *Service) {
		s.fallback = fallback.NewOrchestrator(s.registry, s.engine.Catalog(), s.baseLogger, opts...)
	}
}

// New 创建编排服务。catalog 为空时使用默认工具目录。
func New(registry *capability.Registry, catalog *exposure.Catalog, invoker fallback.Invoker, logger *zap.Logger, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if invoker == nil {
		return nil, fmt.Errorf("invoker cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := exposure.NewEngine(registry, catalog)
	s := &Service{
		registry:   registry,
		engine:     engine,
		store:      conversation.NewStore(registry, logger),
		fallback:   fallback.NewOrchestrator(registry, engine.Catalog(), logger),
		simplifier: simplify.New(registry),
		invoker:    invoker,
		metrics:    nopMetrics{},
		tracer:     otel.Tracer(instrumentationName),
		logger:     logger.With(zap.String("component", "orchestrator")),
		baseLogger: logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter(instrumentationName)
	var err error
	s.callCounter, err = meter.Int64Counter("toolgate.tool_call.total",
		metric.WithDescription("Total number of orchestrated tool calls"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, fmt.Errorf("create tool call counter: %w", err)
	}
	s.callDuration, err = meter.Float64Histogram("toolgate.tool_call.duration",
		metric.WithDescription("Orchestrated tool call duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create tool call histogram: %w", err)
	}

	return s, nil
}

// Registry 能力注册表
func (s *Service) Registry() *capability.Registry { return s.registry }

// Engine 工具暴露引擎
func (s *Service) Engine() *exposure.Engine { return s.engine }

// Store 会话上下文存储
func (s *Service) Store() *conversation.Store { return s.store }

// Fallback 回退编排器
func (s *Service) Fallback() *fallback.Orchestrator { return s.fallback }

// Simplifier 响应简化器
func (s *Service) Simplifier() *simplify.Simplifier { return s.simplifier }

// AvailableTools 会话当前可用的工具列表；会话不存在时按进度 0 计算
func (s *Service) AvailableTools(conversationID, model string) []string {
	length := 0
	if c, err := s.store.Get(conversationID); err == nil {
		length = c.TotalRecorded()
	}
	return s.engine.AvailableTools(model, length)
}

// Handle 处理一次工具调用。
// 返回的错误要么是 types.Error（请求无效、工具未暴露），要么是 Invoker 原样返回的错误。
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "orchestrator.handle",
		trace.WithAttributes(
			attribute.String("conversation.id", req.ConversationID),
			attribute.String("llm.model", req.Model),
			attribute.String("tool.operation", req.Operation),
		))
	defer span.End()

	conv := s.store.GetOrCreate(req.ConversationID, req.Model)
	s.metrics.SetActiveConversations(s.store.Len())

	length := conv.TotalRecorded()
	if !s.engine.IsExposed(req.Model, length, req.Operation) {
		s.metrics.RecordExposureRejection(req.Operation, req.Model)
		s.logger.Info("tool not exposed",
			zap.String("conversation_id", req.ConversationID),
			zap.String("model", req.Model),
			zap.String("operation", req.Operation),
			zap.Int("conversation_length", length),
		)
		err := types.NewError(types.ErrToolNotExposed,
			fmt.Sprintf("operation %q is not available to model %q at conversation length %d", req.Operation, req.Model, length)).
			WithOperation(req.Operation)
		span.SetStatus(codes.Error, err.Message)
		return nil, err
	}

	start := s.now()
	outcome, err := s.fallback.Execute(ctx, req.Operation, req.Model, s.invoker, req.Args)
	elapsed := s.now().Sub(start)

	path := pathInvoke
	if outcome.FellBack {
		path = pathFallback
		s.metrics.RecordFallback(req.Operation, req.Model)
	}
	s.metrics.RecordToolCall(req.Operation, path, err == nil, elapsed)
	s.callCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", req.Operation),
		attribute.String("path", path),
		attribute.Bool("success", err == nil),
	))
	s.callDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("operation", req.Operation),
		attribute.String("path", path),
	))
	span.SetAttributes(attribute.Bool("tool.fell_back", outcome.FellBack))

	recorded := outcome.Result
	errText := ""
	if err != nil {
		errText = err.Error()
		recorded = errText
	}
	call := conv.Record(req.Operation, req.Args, recorded, err == nil, elapsed.Seconds())
	summary := conv.Summary()
	s.fireHooks(ctx, RecordEvent{
		ConversationID: req.ConversationID,
		Model:          req.Model,
		Call:           call,
		FellBack:       outcome.FellBack,
		Error:          errText,
		Summary:        summary,
		Usage:          conv.UsagePatterns(),
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tool invocation failed")
		s.logger.Warn("tool invocation failed",
			zap.String("conversation_id", req.ConversationID),
			zap.String("operation", req.Operation),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	level := s.simplifier.Level(req.Model)
	result := simplify.Apply(outcome.Result, level)
	if level != simplify.LevelNone {
		s.metrics.RecordSimplification(level.String())
	}

	resp := &Response{
		Operation:        req.Operation,
		Result:           result,
		FellBack:         outcome.FellBack,
		SimplifyLevel:    level.String(),
		SimplifiedPrompt: s.engine.ShouldUseSimplifiedPrompt(req.Model, req.Operation),
		SimplifyResponse: conv.ShouldSimplifyResponse(),
		Summary:          summary,
		ExposedTools:     s.engine.AvailableTools(req.Model, conv.TotalRecorded()),
	}
	if s.tokens != nil {
		resp.SummaryTokens = s.tokens.Count(req.Model, summary)
		s.metrics.RecordSummaryTokens(req.Model, resp.SummaryTokens)
	}

	s.logger.Debug("tool call handled",
		zap.String("conversation_id", req.ConversationID),
		zap.String("operation", req.Operation),
		zap.String("path", path),
		zap.Duration("elapsed", elapsed),
	)
	return resp, nil
}

func (s *Service) fireHooks(ctx context.Context, ev RecordEvent) {
	for _, h := range s.hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("record hook panicked",
						zap.String("conversation_id", ev.ConversationID),
						zap.Any("panic", r),
					)
				}
			}()
			h.AfterRecord(ctx, ev)
		}()
	}
}

func validateRequest(req Request) error {
	switch {
	case req.ConversationID == "":
		return types.NewError(types.ErrInvalidRequest, "conversation_id is required")
	case req.Model == "":
		return types.NewError(types.ErrInvalidRequest, "model is required")
	case req.Operation == "":
		return types.NewError(types.ErrInvalidRequest, "operation is required")
	}
	return nil
}
