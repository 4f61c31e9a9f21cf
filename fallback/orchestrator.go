package fallback

import (
	"context"
	"maps"

	"github.com/BaSui01/toolgate/capability"
	"github.com/BaSui01/toolgate/exposure"
	"go.uber.org/zap"
)

// Invoker 外部自动化平台调用能力，对本包不透明
type Invoker interface {
	Invoke(ctx context.Context, operation string, args map[string]any) (any, error)
}

// InvokerFunc 函数适配器
type InvokerFunc func(ctx context.Context, operation string, args map[string]any) (any, error)

// Invoke implements Invoker.
func (f InvokerFunc) Invoke(ctx context.Context, operation string, args map[string]any) (any, error) {
	return f(ctx, operation, args)
}

// complexToolMaxTools 复杂操作需要的最少工具容量（严格大于）
const complexToolMaxTools = 15

// Outcome 一次执行的结果
type Outcome struct {
	Result   any
	FellBack bool
}

// Orchestrator 决定复杂操作是否改用预设计划
type Orchestrator struct {
	registry     *capability.Registry
	catalog      *exposure.Catalog
	handlers     map[string]Handler
	instructions map[string]string
	logger       *zap.Logger
}

// Option 配置选项
type Option func(*Orchestrator)

// WithHandler 登记或替换某个操作的预设回退
func WithHandler(operation string, h Handler) Option {
	return func(o *Orchestrator) {
		o.handlers[operation] = h
	}
}

// WithInstructions 登记或替换某个操作的指引文本
func WithInstructions(operation, text string) Option {
	return func(o *Orchestrator) {
		o.instructions[operation] = text
	}
}

// NewOrchestrator 创建回退编排器；catalog 为空时使用默认工具目录
func NewOrchestrator(registry *capability.Registry, catalog *exposure.Catalog, logger *zap.Logger, opts ...Option) *Orchestrator {
	if catalog == nil {
		catalog = exposure.DefaultCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		registry:     registry,
		catalog:      catalog,
		handlers:     DefaultHandlers(),
		instructions: maps.Clone(defaultInstructions),
		logger:       logger.With(zap.String("component", "fallback")),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ShouldFallback 复杂操作遇到工具容量不超过 15 的模型，或模型 JSON 准确度低时返回 true
func (o *Orchestrator) ShouldFallback(model, operation string) bool {
	p := o.registry.Resolve(model)
	if o.catalog.IsComplex(operation) && p.MaxTools <= complexToolMaxTools {
		return true
	}
	return p.JSONAccuracy == capability.JSONAccuracyLow
}

// HasHandler 操作是否登记了预设回退
func (o *Orchestrator) HasHandler(operation string) bool {
	_, ok := o.handlers[operation]
	return ok
}

// WouldFallback Execute 是否会走预设计划而不调用真实调用器
func (o *Orchestrator) WouldFallback(model, operation string) bool {
	return o.HasHandler(operation) && o.ShouldFallback(model, operation)
}

// Execute 需要回退且有预设计划时返回计划，否则把调用原样交给 invoker。
// invoker 返回的错误不做包装。
func (o *Orchestrator) Execute(ctx context.Context, operation, model string, invoker Invoker, args map[string]any) (Outcome, error) {
	if h, ok := o.handlers[operation]; ok && o.ShouldFallback(model, operation) {
		plan := h(args)
		o.logger.Info("operation replaced by fallback plan",
			zap.String("operation", operation),
			zap.String("model", model),
			zap.String("complexity", string(plan.Complexity)),
		)
		return Outcome{Result: plan.AsMap(), FellBack: true}, nil
	}

	result, err := invoker.Invoke(ctx, operation, args)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Result: result}, nil
}
