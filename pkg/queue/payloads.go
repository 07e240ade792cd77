package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 应用领域 --------------------------

// AppRef 标识一个应用.
type AppRef struct {
	AppID  uint   `json:"app_id"`
	AppKey string `json:"app_key"`
}

// AppChangedPayload 应用创建或元数据更新.
type AppChangedPayload struct {
	App      AppRef `json:"app"`
	Name     string `json:"name,omitempty"`
	IsPublic bool   `json:"is_public"`
}

// AppDeletedPayload 应用删除，带被级联清理的版本数.
type AppDeletedPayload struct {
	App             AppRef `json:"app"`
	DeletedVersions int64  `json:"deleted_versions"`
}

// -------------------------- 版本领域 --------------------------

// VersionRef 标识应用下的一个版本.
type VersionRef struct {
	App         AppRef `json:"app"`
	VersionID   uint   `json:"version_id"`
	VersionName string `json:"version_name"`
}

// VersionUploadedPayload 版本上传完成并成为活跃版本.
type VersionUploadedPayload struct {
	Version   VersionRef `json:"version"`
	FileCount int        `json:"file_count"`
	TotalSize int64      `json:"total_size"`
}

// VersionActivatedPayload 活跃版本切换.
type VersionActivatedPayload struct {
	Version       VersionRef `json:"version"`
	PrevVersionID uint       `json:"prev_version_id,omitempty"`
}

// VersionDeletedPayload 非活跃版本删除完成.
type VersionDeletedPayload struct {
	Version VersionRef `json:"version"`
}

// -------------------------- 文件访问领域 --------------------------

// FileServedPayload 版本文件被下载.
type FileServedPayload struct {
	Version  VersionRef `json:"version"`
	FileName string     `json:"file_name"`
	ClientIP string     `json:"client_ip,omitempty"`
}

// -------------------------- 审计领域 --------------------------

// AuditRecordedPayload 待落库的审计事件，由订阅端异步写入数据库.
type AuditRecordedPayload struct {
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorKeyID *uint  `json:"actor_key_id,omitempty"`
	ActorIP    string `json:"actor_ip,omitempty"`
	Details    string `json:"details,omitempty"` // JSON 文本
}
