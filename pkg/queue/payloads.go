package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理时定位来源.
	Topic string `json:"topic"`
	// TraceID 分布式追踪 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 负载版本.
	Version string `json:"version,omitempty"`
}

// Message 统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// AttachmentRef 事件中引用的附件.
type AttachmentRef struct {
	ID       uint   `json:"id"`
	Storage  string `json:"storage"`
	Filename string `json:"filename"`
	Path     string `json:"path,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Mimetype string `json:"mimetype,omitempty"`
	URL      string `json:"url,omitempty"`
}

// AttachmentStoredPayload 上传完成.
type AttachmentStoredPayload struct {
	Attachment AttachmentRef `json:"attachment"`
	// Field 上传时指定的 attachmentField（collection.name），可为空
	Field string `json:"field,omitempty"`
}

// AttachmentDestroyedPayload 记录已删除.
type AttachmentDestroyedPayload struct {
	Attachment AttachmentRef `json:"attachment"`
	// Outcome 物理删除结果：physical_deleted / physical_skipped / physical_missing / physical_failed
	Outcome string `json:"outcome"`
	// Retained 文件是否仍保留在存储上
	Retained bool `json:"retained"`
}

// AttachmentRestoredPayload 记录已恢复.
type AttachmentRestoredPayload struct {
	Attachment AttachmentRef `json:"attachment"`
}
