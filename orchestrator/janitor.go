package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cleanup 立即执行一次会话清理，返回被淘汰的会话 ID
func (s *Service) Cleanup(maxConversations int) []string {
	removed := s.store.Cleanup(maxConversations)
	if len(removed) > 0 {
		s.metrics.RecordEvictions(len(removed))
		s.logger.Info("conversations evicted",
			zap.Int("evicted", len(removed)),
			zap.Int("max_conversations", maxConversations),
		)
		if s.onEvict != nil {
			s.onEvict(removed)
		}
	}
	s.metrics.SetActiveConversations(s.store.Len())
	return removed
}

// ResetConversation 清空会话历史并通知重置回调，会话不存在时返回 CONTEXT_NOT_FOUND
func (s *Service) ResetConversation(conversationID string) error {
	if err := s.store.Reset(conversationID); err != nil {
		return err
	}
	s.logger.Info("conversation reset", zap.String("conversation_id", conversationID))
	if s.onReset != nil {
		s.onReset(conversationID)
	}
	return nil
}

// StartJanitor 在后台按固定间隔清理会话，ctx 取消后退出。返回的通道在退出后关闭。
// interval 或 maxConversations 非正时不启动。
func (s *Service) StartJanitor(ctx context.Context, interval time.Duration, maxConversations int) <-chan struct{} {
	done := make(chan struct{})
	if interval <= 0 || maxConversations <= 0 {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.logger.Info("conversation janitor started",
			zap.Duration("interval", interval),
			zap.Int("max_conversations", maxConversations),
		)
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("conversation janitor stopped")
				return
			case <-ticker.C:
				s.Cleanup(maxConversations)
			}
		}
	}()
	return done
}
