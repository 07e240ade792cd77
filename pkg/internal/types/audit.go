package types

import (
	"time"

	"github.com/yeisme/firmvault/pkg/internal/model"
)

// AuditEntryResponse 审计日志条目.
type AuditEntryResponse struct {
	ID         uint      `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id,omitempty"`
	ActorKeyID *uint     `json:"actor_key_id,omitempty"`
	ActorIP    string    `json:"actor_ip,omitempty"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListAuditRequest 审计日志查询参数.
type ListAuditRequest struct {
	Action     string `form:"action"      json:"action,omitempty"`
	EntityType string `form:"entity_type" json:"entity_type,omitempty"`
	EntityID   string `form:"entity_id"   json:"entity_id,omitempty"`
	Limit      int    `form:"limit"       json:"limit,omitempty"`
	Offset     int    `form:"offset"      json:"offset,omitempty"`
}

// ListAuditResponse 审计日志列表，新记录在前.
type ListAuditResponse struct {
	Entries []AuditEntryResponse `json:"entries"`
	Total   int64                `json:"total"`
}

// ToAuditEntryResponse 将模型转换为响应.
func ToAuditEntryResponse(e *model.AuditLog) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         e.ID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		ActorKeyID: e.ActorKeyID,
		ActorIP:    e.ActorIP,
		Details:    e.Details,
		CreatedAt:  e.CreatedAt,
	}
}
