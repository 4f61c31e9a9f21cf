package conversation

import (
	"fmt"
	"sync"

	"github.com/BaSui01/toolgate/capability"
	"github.com/BaSui01/toolgate/types"
	"go.uber.org/zap"
)

// Store 进程级的会话 ID -> 上下文映射。
// 顶层锁只保护映射与插入顺序，单个会话的读写由 Context 自己的锁负责。
type Store struct {
	mu       sync.RWMutex
	contexts map[string]*Context
	order    []string // 插入顺序，Cleanup 据此淘汰

	registry *capability.Registry
	logger   *zap.Logger
}

// NewStore 创建会话存储
func NewStore(registry *capability.Registry, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		contexts: make(map[string]*Context),
		registry: registry,
		logger:   logger.With(zap.String("component", "conversation_store")),
	}
}

// GetOrCreate 首次访问时按模型能力推导限制并创建上下文，之后总是返回同一对象
func (s *Store) GetOrCreate(conversationID, model string) *Context {
	s.mu.RLock()
	c, ok := s.contexts[conversationID]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.contexts[conversationID]; ok {
		return c
	}

	limits := s.registry.ContextLimits(model)
	c = NewContext(conversationID, model, limits)
	s.contexts[conversationID] = c
	s.order = append(s.order, conversationID)

	s.logger.Debug("conversation context created",
		zap.String("conversation_id", conversationID),
		zap.String("model", model),
		zap.Int("max_context_items", limits.MaxContextItems),
		zap.Int("summary_trigger", limits.ContextSummaryTrigger),
	)
	return c
}

// Get 返回已存在的上下文，不存在时返回 CONTEXT_NOT_FOUND
func (s *Store) Get(conversationID string) (*Context, error) {
	s.mu.RLock()
	c, ok := s.contexts[conversationID]
	s.mu.RUnlock()
	if !ok {
		return nil, types.NewError(types.ErrContextNotFound,
			fmt.Sprintf("conversation %q has no context; call GetOrCreate first", conversationID)).
			WithRetryable(false)
	}
	return c, nil
}

// Record 向已存在的会话追加调用记录
func (s *Store) Record(conversationID, tool string, params map[string]any, result any, success bool, responseTime float64) (ToolCall, error) {
	c, err := s.Get(conversationID)
	if err != nil {
		return ToolCall{}, err
	}
	return c.Record(tool, params, result, success, responseTime), nil
}

// Summary 返回会话摘要
func (s *Store) Summary(conversationID string) (string, error) {
	c, err := s.Get(conversationID)
	if err != nil {
		return "", err
	}
	return c.Summary(), nil
}

// ShouldSimplifyResponse 会话是否应简化响应
func (s *Store) ShouldSimplifyResponse(conversationID string) (bool, error) {
	c, err := s.Get(conversationID)
	if err != nil {
		return false, err
	}
	return c.ShouldSimplifyResponse(), nil
}

// UsagePatterns 会话使用统计
func (s *Store) UsagePatterns(conversationID string) (UsagePatterns, error) {
	c, err := s.Get(conversationID)
	if err != nil {
		return UsagePatterns{}, err
	}
	return c.UsagePatterns(), nil
}

// Reset 清空会话历史，会话保留在存储中
func (s *Store) Reset(conversationID string) error {
	c, err := s.Get(conversationID)
	if err != nil {
		return err
	}
	c.Reset()
	return nil
}

// Cleanup 会话数超过 maxConversations 时按插入顺序淘汰最早的多余会话，返回被淘汰的 ID。
// 注意这不是 LRU：长期未使用但插入较晚的会话可能比仍在活跃但插入较早的会话活得更久。
func (s *Store) Cleanup(maxConversations int) []string {
	if maxConversations < 0 {
		maxConversations = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	excess := len(s.order) - maxConversations
	if excess <= 0 {
		return nil
	}

	removed := make([]string, excess)
	copy(removed, s.order[:excess])
	for _, id := range removed {
		delete(s.contexts, id)
	}
	remaining := make([]string, len(s.order)-excess)
	copy(remaining, s.order[excess:])
	s.order = remaining

	s.logger.Info("conversation contexts evicted",
		zap.Int("evicted", excess),
		zap.Int("remaining", len(s.order)),
		zap.Int("max_conversations", maxConversations),
	)
	return removed
}

// Len 当前会话数
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contexts)
}

// IDs 按插入顺序返回会话 ID
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
