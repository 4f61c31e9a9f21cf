package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QueryObserver 记录数据库操作耗时，由 internal/metrics.Collector 实现
type QueryObserver interface {
	RecordDBQuery(database, operation string, duration time.Duration)
}

// GormStore 基于 gorm 的审计后端。
// 表结构由 internal/migration 管理；AutoMigrate 仅用于 SQLite 开发环境与测试。
type GormStore struct {
	db       *gorm.DB
	dbName   string
	observer QueryObserver
	logger   *zap.Logger
}

// NewGormStore 创建 gorm 审计后端
func NewGormStore(db *gorm.DB, logger *zap.Logger) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormStore{
		db:     db,
		dbName: db.Dialector.Name(),
		logger: logger.With(zap.String("component", "audit_store")),
	}, nil
}

// WithObserver 设置查询耗时观察者
func (s *GormStore) WithObserver(o QueryObserver) *GormStore {
	s.observer = o
	return s
}

// AutoMigrate 创建或更新审计表
func (s *GormStore) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Entry{})
}

// Write implements Backend.
func (s *GormStore) Write(ctx context.Context, entry *Entry) error {
	start := time.Now()
	err := s.db.WithContext(ctx).Create(entry).Error
	s.observe("insert", start)
	if err != nil {
		return fmt.Errorf("insert audit entry %s: %w", entry.ID, err)
	}
	return nil
}

// Query implements Backend.
func (s *GormStore) Query(ctx context.Context, filter *Filter) ([]*Entry, error) {
	if filter == nil {
		filter = &Filter{}
	}

	start := time.Now()
	q := s.scoped(ctx, filter).Order("occurred_at ASC").Order("id ASC")
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var entries []*Entry
	err := q.Find(&entries).Error
	s.observe("select", start)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	return entries, nil
}

// Count 满足条件的记录数，忽略 Limit/Offset
func (s *GormStore) Count(ctx context.Context, filter *Filter) (int64, error) {
	if filter == nil {
		filter = &Filter{}
	}
	var n int64
	if err := s.scoped(ctx, filter).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return n, nil
}

// Close implements Backend. 连接池由调用方管理，这里不关闭。
func (s *GormStore) Close() error {
	return nil
}

func (s *GormStore) scoped(ctx context.Context, f *Filter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&Entry{})
	if f.ConversationID != "" {
		q = q.Where("conversation_id = ?", f.ConversationID)
	}
	if f.ToolName != "" {
		q = q.Where("tool_name = ?", f.ToolName)
	}
	if f.Model != "" {
		q = q.Where("model = ?", f.Model)
	}
	if f.EventType != "" {
		q = q.Where("event_type = ?", f.EventType)
	}
	if f.Success != nil {
		q = q.Where("success = ?", *f.Success)
	}
	if f.StartTime != nil {
		q = q.Where("occurred_at >= ?", *f.StartTime)
	}
	if f.EndTime != nil {
		q = q.Where("occurred_at <= ?", *f.EndTime)
	}
	return q
}

func (s *GormStore) observe(operation string, start time.Time) {
	if s.observer != nil {
		s.observer.RecordDBQuery(s.dbName, operation, time.Since(start))
	}
}
