package model

import "time"

// AuditLog 审计日志模型.写入为 fire-and-forget，失败不影响触发它的操作.
type AuditLog struct {
	ID         uint   `gorm:"primaryKey"    json:"id"`
	Action     string `gorm:"size:100;index" json:"action"`
	EntityType string `gorm:"size:50;index"  json:"entity_type"`
	EntityID   string `gorm:"size:100"       json:"entity_id,omitempty"`
	ActorKeyID *uint  `json:"actor_key_id,omitempty"`
	ActorIP    string `gorm:"size:64" json:"actor_ip,omitempty"`
	// Details 以 JSON 文本存储操作细节
	Details   string    `gorm:"type:text" json:"details,omitempty"`
	CreatedAt time.Time `gorm:"index"     json:"created_at"`
}
