package cache

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/toolgate/conversation"
	"github.com/BaSui01/toolgate/orchestrator"
	"go.uber.org/zap"
)

// Snapshot 会话的只读快照，供其它副本或看板读取
type Snapshot struct {
	ConversationID string                     `json:"conversation_id"`
	Model          string                     `json:"model"`
	Summary        string                     `json:"summary"`
	Usage          conversation.UsagePatterns `json:"usage"`
	LastTool       string                     `json:"last_tool"`
	LastSuccess    bool                       `json:"last_success"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

// SnapshotStore 把调用记录事件异步写成 Redis 快照。
// 同一会话在队列中只保留最新一份，旧的被覆盖。
type SnapshotStore struct {
	cache   *Manager
	ttl     time.Duration
	onWrite func(err error)
	logger  *zap.Logger

	// writeMu 串行化 flush 写入与 Forget 删除，已删除的快照不会被在途写入复活
	writeMu     sync.Mutex
	beforeWrite func()

	mu      sync.Mutex
	pending map[string]Snapshot
	notify  chan struct{}
	done    chan struct{}
	closed  bool
}

// NewSnapshotStore 创建快照存储并启动写入协程
func NewSnapshotStore(cache *Manager, ttl time.Duration, onWrite func(err error), logger *zap.Logger) *SnapshotStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SnapshotStore{
		cache:   cache,
		ttl:     ttl,
		onWrite: onWrite,
		logger:  logger.With(zap.String("component", "snapshot_store")),
		pending: make(map[string]Snapshot),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.loop()
	return s
}

// AfterRecord implements orchestrator.Hook.
func (s *SnapshotStore) AfterRecord(_ context.Context, ev orchestrator.RecordEvent) {
	snap := Snapshot{
		ConversationID: ev.ConversationID,
		Model:          ev.Model,
		Summary:        ev.Summary,
		Usage:          ev.Usage,
		LastTool:       ev.Call.ToolName,
		LastSuccess:    ev.Call.Success,
		UpdatedAt:      ev.Call.Timestamp,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending[ev.ConversationID] = snap
	select {
	case s.notify <- struct{}{}:
	default:
	}
	s.mu.Unlock()
}

// Get 读取会话快照，不存在时返回 ErrCacheMiss
func (s *SnapshotStore) Get(ctx context.Context, conversationID string) (*Snapshot, error) {
	var snap Snapshot
	if err := s.cache.GetJSON(ctx, s.key(conversationID), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Forget 删除会话快照（重置或清理会话时调用）
func (s *SnapshotStore) Forget(ctx context.Context, conversationIDs ...string) error {
	if len(conversationIDs) == 0 {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	keys := make([]string, len(conversationIDs))
	for i, id := range conversationIDs {
		delete(s.pending, id)
		keys[i] = s.key(id)
	}
	s.mu.Unlock()
	return s.cache.Delete(ctx, keys...)
}

// Close 写完剩余快照后停止写入协程
func (s *SnapshotStore) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.notify)
	s.mu.Unlock()

	<-s.done
}

func (s *SnapshotStore) key(conversationID string) string {
	return s.cache.Key("conversation", conversationID)
}

func (s *SnapshotStore) loop() {
	defer close(s.done)
	for range s.notify {
		s.flush()
	}
	s.flush()
}

func (s *SnapshotStore) flush() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[string]Snapshot, len(batch))
	s.mu.Unlock()
	if len(batch) == 0 {
		return
	}

	values := make(map[string]any, len(batch))
	for id, snap := range batch {
		values[s.key(id)] = snap
	}

	if s.beforeWrite != nil {
		s.beforeWrite()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	failed := s.cache.SetJSONMany(ctx, values, s.ttl)
	cancel()

	for id := range batch {
		err := failed[s.key(id)]
		if s.onWrite != nil {
			s.onWrite(err)
		}
		if err != nil {
			s.logger.Warn("snapshot write failed",
				zap.String("conversation_id", id),
				zap.Error(err),
			)
		}
	}
}
