package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WriteObserver 观察每次后端写入的结果
type WriteObserver func(err error)

// LoggerConfig 异步审计日志配置
type LoggerConfig struct {
	Backends    []Backend
	QueueSize   int
	Workers     int
	IDGenerator func() string
	OnWrite     WriteObserver
}

// AsyncLogger 审计日志，LogAsync 永不阻塞
type AsyncLogger struct {
	backends    []Backend
	queue       chan *Entry
	wg          sync.WaitGroup
	idGenerator func() string
	onWrite     WriteObserver
	logger      *zap.Logger

	closeMu sync.RWMutex
	closed  bool
}

// NewAsyncLogger 创建审计日志并启动工作协程
func NewAsyncLogger(cfg LoggerConfig, logger *zap.Logger) *AsyncLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = uuid.NewString
	}

	al := &AsyncLogger{
		backends:    cfg.Backends,
		queue:       make(chan *Entry, cfg.QueueSize),
		idGenerator: cfg.IDGenerator,
		onWrite:     cfg.OnWrite,
		logger:      logger.With(zap.String("component", "audit_logger")),
	}

	for i := 0; i < cfg.Workers; i++ {
		al.wg.Add(1)
		go al.worker()
	}
	return al
}

func (al *AsyncLogger) worker() {
	defer al.wg.Done()

	for entry := range al.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := al.writeToBackends(ctx, entry); err != nil {
			al.logger.Error("failed to write audit entry",
				zap.String("entry_id", entry.ID),
				zap.Error(err),
			)
		}
		cancel()
	}
}

func (al *AsyncLogger) writeToBackends(ctx context.Context, entry *Entry) error {
	var lastErr error
	for _, backend := range al.backends {
		err := backend.Write(ctx, entry)
		if al.onWrite != nil {
			al.onWrite(err)
		}
		if err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (al *AsyncLogger) prepare(entry *Entry) {
	if entry.ID == "" {
		entry.ID = al.idGenerator()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
}

// Log 同步写入所有后端
func (al *AsyncLogger) Log(ctx context.Context, entry *Entry) error {
	al.closeMu.RLock()
	defer al.closeMu.RUnlock()
	if al.closed {
		return fmt.Errorf("audit logger is closed")
	}

	al.prepare(entry)
	return al.writeToBackends(ctx, entry)
}

// LogAsync 放入写入队列；已关闭或队列已满时丢弃并返回 false
func (al *AsyncLogger) LogAsync(entry *Entry) bool {
	al.closeMu.RLock()
	defer al.closeMu.RUnlock()
	if al.closed {
		al.logger.Warn("audit logger is closed, dropping entry")
		return false
	}

	al.prepare(entry)
	select {
	case al.queue <- entry:
		return true
	default:
		al.logger.Warn("audit queue full, dropping entry",
			zap.String("entry_id", entry.ID),
		)
		return false
	}
}

// Query 从第一个后端查询
func (al *AsyncLogger) Query(ctx context.Context, filter *Filter) ([]*Entry, error) {
	if len(al.backends) == 0 {
		return nil, fmt.Errorf("no audit backends configured")
	}
	return al.backends[0].Query(ctx, filter)
}

// Close 排空队列后关闭所有后端，可重复调用
func (al *AsyncLogger) Close() error {
	al.closeMu.Lock()
	if al.closed {
		al.closeMu.Unlock()
		return nil
	}
	al.closed = true
	close(al.queue)
	al.closeMu.Unlock()

	al.wg.Wait()

	var lastErr error
	for _, backend := range al.backends {
		if err := backend.Close(); err != nil {
			lastErr = err
		}
	}

	al.logger.Info("audit logger closed")
	return lastErr
}
