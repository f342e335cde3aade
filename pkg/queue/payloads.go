package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，通常为请求 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// PasteRef 事件中引用的粘贴，不包含密码指纹与缓存的预签名 URL.
type PasteRef struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Location  string    `json:"location"`
	Size      int64     `json:"size,omitempty"`
	MimeType  string    `json:"mime_type,omitempty"`
	Protected bool      `json:"protected,omitempty"`
	ExpiredAt time.Time `json:"expired_at"`
}

// PastePayload 所有 pv.paste.* 主题共用的负载.
type PastePayload struct {
	Paste PasteRef `json:"paste"`
	// AccessCount 事件发生后的访问次数，accessed 主题使用
	AccessCount int64 `json:"access_count,omitempty"`
	// Reason reaped 主题的清理原因：expired 或 object_missing
	Reason string `json:"reason,omitempty"`
	// Fields updated 主题中被修改的字段名
	Fields []string `json:"fields,omitempty"`
}

const (
	ReasonExpired       = "expired"
	ReasonObjectMissing = "object_missing"
)
