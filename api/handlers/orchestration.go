package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/BaSui01/toolgate/audit"
	"github.com/BaSui01/toolgate/capability"
	"github.com/BaSui01/toolgate/exposure"
	"github.com/BaSui01/toolgate/internal/cache"
	"github.com/BaSui01/toolgate/orchestrator"
	"github.com/BaSui01/toolgate/simplify"
	"github.com/BaSui01/toolgate/types"
	"go.uber.org/zap"
)

// 审计查询默认与最大条数
const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// SnapshotReader 读取会话快照（internal/cache.SnapshotStore）
type SnapshotReader interface {
	Get(ctx context.Context, conversationID string) (*cache.Snapshot, error)
}

// AuditQuerier 查询审计记录（audit.AsyncLogger）
type AuditQuerier interface {
	Query(ctx context.Context, filter *audit.Filter) ([]*audit.Entry, error)
}

// =============================================================================
// 🧭 编排 Handler
// =============================================================================

// OrchestrationHandler 暴露能力查询、工具暴露、调用与会话管理接口
type OrchestrationHandler struct {
	service   *orchestrator.Service
	snapshots SnapshotReader
	audit     AuditQuerier
	logger    *zap.Logger
}

// OrchestrationOption 配置选项
type OrchestrationOption func(*OrchestrationHandler)

// WithSnapshots 启用 /snapshot 接口
func WithSnapshots(r SnapshotReader) OrchestrationOption {
	return func(h *OrchestrationHandler) { h.snapshots = r }
}

// WithAudit 启用 /audit 接口
func WithAudit(q AuditQuerier) OrchestrationOption {
	return func(h *OrchestrationHandler) { h.audit = q }
}

// NewOrchestrationHandler 创建编排处理器
func NewOrchestrationHandler(service *orchestrator.Service, logger *zap.Logger, opts ...OrchestrationOption) *OrchestrationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &OrchestrationHandler{
		service: service,
		logger:  logger.With(zap.String("component", "orchestration_handler")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register 在 mux 上注册全部路由
func (h *OrchestrationHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/models", h.HandleListModels)
	mux.HandleFunc("GET /api/v1/models/{model}/capabilities", h.HandleCapabilities)
	mux.HandleFunc("GET /api/v1/tools", h.HandleTools)
	mux.HandleFunc("POST /api/v1/conversations/{id}/invoke", h.HandleInvoke)
	mux.HandleFunc("POST /api/v1/conversations/{id}/batch", h.HandleBatch)
	mux.HandleFunc("GET /api/v1/conversations/{id}/summary", h.HandleSummary)
	mux.HandleFunc("GET /api/v1/conversations/{id}/usage", h.HandleUsage)
	mux.HandleFunc("POST /api/v1/conversations/{id}/reset", h.HandleReset)
	mux.HandleFunc("POST /api/v1/simplify", h.HandleSimplify)
	mux.HandleFunc("GET /api/v1/operations/{operation}/instructions", h.HandleInstructions)
	if h.snapshots != nil {
		mux.HandleFunc("GET /api/v1/conversations/{id}/snapshot", h.HandleSnapshot)
	}
	if h.audit != nil {
		mux.HandleFunc("GET /api/v1/audit", h.HandleAudit)
	}
}

// =============================================================================
// 📐 能力与暴露
// =============================================================================

// CapabilitiesResponse 模型能力查询结果
type CapabilitiesResponse struct {
	Model             string                   `json:"model"`
	Match             capability.MatchKind     `json:"match"`
	MatchedEntry      string                   `json:"matched_entry,omitempty"`
	Profile           capability.Profile       `json:"profile"`
	Limits            capability.ContextLimits `json:"limits"`
	ComplexTasks      bool                     `json:"suitable_for_complex_tasks"`
	SimplifyLevel     string                   `json:"simplify_level"`
	MaxExposedToolset int                      `json:"max_exposed_tools"`
}

// HandleListModels 列出种子表中的全部模型
func (h *OrchestrationHandler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, h.service.Registry().Entries())
}

// HandleCapabilities GET /api/v1/models/{model}/capabilities
func (h *OrchestrationHandler) HandleCapabilities(w http.ResponseWriter, r *http.Request) {
	model := r.PathValue("model")
	if model == "" {
		WriteErrorMessage(w, r, http.StatusBadRequest, types.ErrInvalidRequest, "model is required", h.logger)
		return
	}

	registry := h.service.Registry()
	profile, match, entry := registry.Lookup(model)
	WriteSuccess(w, r, CapabilitiesResponse{
		Model:             model,
		Match:             match,
		MatchedEntry:      entry,
		Profile:           profile,
		Limits:            capability.LimitsFor(profile),
		ComplexTasks:      registry.IsSuitableForComplexTasks(model),
		SimplifyLevel:     simplify.LevelFor(profile).String(),
		MaxExposedToolset: profile.MaxTools,
	})
}

// ToolsResponse 工具暴露查询结果
type ToolsResponse struct {
	Model              string          `json:"model"`
	ConversationLength int             `json:"conversation_length"`
	Tiers              []exposure.Tier `json:"tiers"`
	Tools              []string        `json:"tools"`
	SimplifiedPrompt   []string        `json:"simplified_prompt_tools,omitempty"`
}

// HandleTools GET /api/v1/tools?model=&conversation_length=
// 提供 conversation_id 时以该会话的累计调用数为进度。
func (h *OrchestrationHandler) HandleTools(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	model := q.Get("model")
	if model == "" {
		WriteErrorMessage(w, r, http.StatusBadRequest, types.ErrInvalidRequest, "model query parameter is required", h.logger)
		return
	}

	length := 0
	if raw := q.Get("conversation_length"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteErrorMessage(w, r, http.StatusBadRequest, types.ErrInvalidRequest,
				"conversation_length must be a non-negative integer", h.logger)
			return
		}
		length = n
	}
	if id := q.Get("conversation_id"); id != "" {
		if c, err := h.service.Store().Get(id); err == nil {
			length = c.TotalRecorded()
		}
	}

	engine := h.service.Engine()
	tools := engine.AvailableTools(model, length)
	var simplified []string
	for _, op := range tools {
		if engine.ShouldUseSimplifiedPrompt(model, op) {
			simplified = append(simplified, op)
		}
	}

	WriteSuccess(w, r, ToolsResponse{
		Model:              model,
		ConversationLength: length,
		Tiers:              engine.ExposedTiers(model, length),
		Tools:              tools,
		SimplifiedPrompt:   simplified,
	})
}

// =============================================================================
// 🚀 调用
// =============================================================================

// InvokeRequest 单次调用请求体
type InvokeRequest struct {
	Model     string         `json:"model"`
	Operation string         `json:"operation"`
	Args      map[string]any `json:"args,omitempty"`
}

// HandleInvoke POST /api/v1/conversations/{id}/invoke
func (h *OrchestrationHandler) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}
	var req InvokeRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	resp, err := h.service.Handle(r.Context(), orchestrator.Request{
		ConversationID: r.PathValue("id"),
		Model:          req.Model,
		Operation:      req.Operation,
		Args:           req.Args,
	})
	if err != nil {
		WriteErr(w, r, err, h.logger)
		return
	}
	WriteSuccess(w, r, resp)
}

// BatchRequest 批量调用请求体
type BatchRequest struct {
	Model string              `json:"model"`
	Calls []orchestrator.Call `json:"calls"`
}

// BatchItemResult 批量中单个调用的结果
type BatchItemResult struct {
	Operation string                 `json:"operation"`
	Response  *orchestrator.Response `json:"response,omitempty"`
	Error     *ErrorInfo             `json:"error,omitempty"`
}

// HandleBatch POST /api/v1/conversations/{id}/batch
func (h *OrchestrationHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}
	var req BatchRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Model == "" {
		WriteErrorMessage(w, r, http.StatusBadRequest, types.ErrInvalidRequest, "model is required", h.logger)
		return
	}

	items, err := h.service.HandleBatch(r.Context(), r.PathValue("id"), req.Model, req.Calls)
	if err != nil {
		WriteErr(w, r, err, h.logger)
		return
	}

	out := make([]BatchItemResult, len(items))
	for i, item := range items {
		out[i] = BatchItemResult{Operation: item.Operation, Response: item.Response}
		if item.Error != nil {
			out[i].Error = toErrorInfo(AsAPIError(item.Error))
		}
	}
	WriteSuccess(w, r, out)
}

// SimplifyRequest 响应简化请求体
type SimplifyRequest struct {
	Model    string `json:"model"`
	Response any    `json:"response"`
}

// HandleSimplify POST /api/v1/simplify
func (h *OrchestrationHandler) HandleSimplify(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}
	var req SimplifyRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Model == "" {
		WriteErrorMessage(w, r, http.StatusBadRequest, types.ErrInvalidRequest, "model is required", h.logger)
		return
	}

	s := h.service.Simplifier()
	WriteSuccess(w, r, map[string]any{
		"model":    req.Model,
		"level":    s.Level(req.Model).String(),
		"response": s.Simplify(req.Response, req.Model),
	})
}

// InstructionsResponse 操作指引
type InstructionsResponse struct {
	Operation        string        `json:"operation"`
	Tier             exposure.Tier `json:"tier,omitempty"`
	Complex          bool          `json:"complex"`
	Instructions     string        `json:"instructions"`
	WouldFallback    *bool         `json:"would_fallback,omitempty"`
	SimplifiedPrompt *bool         `json:"simplified_prompt,omitempty"`
}

// HandleInstructions GET /api/v1/operations/{operation}/instructions?model=
func (h *OrchestrationHandler) HandleInstructions(w http.ResponseWriter, r *http.Request) {
	op := r.PathValue("operation")
	catalog := h.service.Engine().Catalog()
	if !catalog.Has(op) {
		WriteErrorMessage(w, r, http.StatusNotFound, types.ErrInvalidRequest,
			fmt.Sprintf("unknown operation %q", op), h.logger)
		return
	}

	tier, _ := catalog.TierOf(op)
	resp := InstructionsResponse{
		Operation:    op,
		Tier:         tier,
		Complex:      catalog.IsComplex(op),
		Instructions: h.service.Fallback().Instructions(op),
	}
	if model := r.URL.Query().Get("model"); model != "" {
		fb := h.service.Fallback().WouldFallback(model, op)
		sp := h.service.Engine().ShouldUseSimplifiedPrompt(model, op)
		resp.WouldFallback = &fb
		resp.SimplifiedPrompt = &sp
	}
	WriteSuccess(w, r, resp)
}

// =============================================================================
// 💬 会话
// =============================================================================

// HandleSummary GET /api/v1/conversations/{id}/summary
func (h *OrchestrationHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	store := h.service.Store()
	summary, err := store.Summary(id)
	if err != nil {
		WriteErr(w, r, err, h.logger)
		return
	}
	simplifyResp, err := store.ShouldSimplifyResponse(id)
	if err != nil {
		WriteErr(w, r, err, h.logger)
		return
	}
	WriteSuccess(w, r, map[string]any{
		"conversation_id":          id,
		"summary":                  summary,
		"should_simplify_response": simplifyResp,
	})
}

// HandleUsage GET /api/v1/conversations/{id}/usage
func (h *OrchestrationHandler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.service.Store().UsagePatterns(r.PathValue("id"))
	if err != nil {
		WriteErr(w, r, err, h.logger)
		return
	}
	WriteSuccess(w, r, usage)
}

// HandleReset POST /api/v1/conversations/{id}/reset
func (h *OrchestrationHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.service.ResetConversation(id); err != nil {
		WriteErr(w, r, err, h.logger)
		return
	}
	WriteSuccess(w, r, map[string]any{"conversation_id": id, "reset": true})
}

// HandleSnapshot GET /api/v1/conversations/{id}/snapshot
func (h *OrchestrationHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, err := h.snapshots.Get(r.Context(), id)
	if err != nil {
		if cache.IsCacheMiss(err) {
			WriteErrorMessage(w, r, http.StatusNotFound, types.ErrContextNotFound,
				fmt.Sprintf("no snapshot for conversation %q", id), h.logger)
			return
		}
		WriteError(w, r, types.NewError(types.ErrServiceUnavailable, "snapshot store unavailable").
			WithHTTPStatus(http.StatusServiceUnavailable).WithRetryable(true).WithCause(err), h.logger)
		return
	}
	WriteSuccess(w, r, snap)
}

// HandleAudit GET /api/v1/audit?conversation_id=&tool=&model=&success=&limit=&offset=
func (h *OrchestrationHandler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &audit.Filter{
		ConversationID: q.Get("conversation_id"),
		ToolName:       q.Get("tool"),
		Model:          q.Get("model"),
		EventType:      audit.EventType(q.Get("event_type")),
		Limit:          defaultAuditLimit,
	}

	if raw := q.Get("success"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			WriteErrorMessage(w, r, http.StatusBadRequest, types.ErrInvalidRequest, "success must be a boolean", h.logger)
			return
		}
		filter.Success = &b
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteErrorMessage(w, r, http.StatusBadRequest, types.ErrInvalidRequest,
				name+" must be a non-negative integer", h.logger)
			return
		}
		*dst = n
	}
	switch {
	case filter.Limit == 0:
		filter.Limit = defaultAuditLimit
	case filter.Limit > maxAuditLimit:
		filter.Limit = maxAuditLimit
	}

	entries, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		WriteError(w, r, types.NewError(types.ErrServiceUnavailable, "audit query failed").
			WithHTTPStatus(http.StatusServiceUnavailable).WithCause(err), h.logger)
		return
	}
	WriteSuccess(w, r, entries)
}
