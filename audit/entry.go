package audit

import (
	"context"
	"time"
)

// EventType 审计事件类型
type EventType string

const (
	// EventToolCall 调用了真实的自动化平台
	EventToolCall EventType = "tool_call"
	// EventFallback 以预设计划代替了真实调用
	EventFallback EventType = "fallback"
)

// Entry 单条审计记录
type Entry struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Timestamp      time.Time `gorm:"column:occurred_at;not null;index:idx_audit_occurred_at" json:"timestamp"`
	EventType      EventType `gorm:"size:32;not null" json:"event_type"`
	ConversationID string    `gorm:"size:128;not null;index:idx_audit_conversation" json:"conversation_id"`
	RequestID      string    `gorm:"size:64" json:"request_id,omitempty"`
	TraceID        string    `gorm:"size:64" json:"trace_id,omitempty"`
	Model          string    `gorm:"size:128;not null" json:"model"`
	ToolName       string    `gorm:"size:128;not null;index:idx_audit_tool" json:"tool_name"`
	Arguments      string    `gorm:"type:text" json:"arguments,omitempty"`
	Result         string    `gorm:"type:text" json:"result,omitempty"`
	Error          string    `gorm:"type:text" json:"error,omitempty"`
	Success        bool      `gorm:"not null" json:"success"`
	DurationMs     int64     `gorm:"not null" json:"duration_ms"`
}

// TableName 审计表名
func (Entry) TableName() string {
	return "tg_tool_call_audit"
}

// Filter 审计查询条件，零值字段不参与过滤
type Filter struct {
	ConversationID string     `json:"conversation_id,omitempty"`
	ToolName       string     `json:"tool_name,omitempty"`
	Model          string     `json:"model,omitempty"`
	EventType      EventType  `json:"event_type,omitempty"`
	Success        *bool      `json:"success,omitempty"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Limit          int        `json:"limit,omitempty"`
	Offset         int        `json:"offset,omitempty"`
}

func (f *Filter) matches(e *Entry) bool {
	if f.ConversationID != "" && e.ConversationID != f.ConversationID {
		return false
	}
	if f.ToolName != "" && e.ToolName != f.ToolName {
		return false
	}
	if f.Model != "" && e.Model != f.Model {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if f.Success != nil && e.Success != *f.Success {
		return false
	}
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && e.Timestamp.After(*f.EndTime) {
		return false
	}
	return true
}

// Backend 审计存储后端
type Backend interface {
	// Write 写入一条记录
	Write(ctx context.Context, entry *Entry) error
	// Query 按条件查询，结果按时间升序
	Query(ctx context.Context, filter *Filter) ([]*Entry, error)
	// Close 释放后端持有的资源
	Close() error
}
