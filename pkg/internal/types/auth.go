package types

import (
	"time"

	"github.com/yeisme/firmvault/pkg/internal/model"
)

// LoginRequest 用 API 密钥换取会话令牌.
type LoginRequest struct {
	APIKey string `rule:"required" json:"api_key"`
}

// LoginResponse 会话令牌与其携带的权限信息.
type LoginResponse struct {
	Token      string           `json:"token"`
	ExpiresAt  time.Time        `json:"expires_at"`
	Permission model.Permission `json:"permission"`
	// AppScope 为空表示全局
	AppScope []string `json:"app_scope,omitempty"`
}

// CreateAPIKeyRequest 创建 API 密钥请求.
type CreateAPIKeyRequest struct {
	Name       string           `rule:"required" json:"name"`
	Permission model.Permission `rule:"required" json:"permission"`
	// AppScope 为空表示全局
	AppScope []string `json:"app_scope,omitempty"`
}

// CreateAPIKeyResponse 创建结果，Key 为明文密钥，仅此一次返回.
type CreateAPIKeyResponse struct {
	Key    string         `json:"key"`
	APIKey APIKeyResponse `json:"api_key"`
}

// APIKeyResponse API 密钥信息（不含任何密钥材料）.
type APIKeyResponse struct {
	ID         uint             `json:"id"`
	Name       string           `json:"name"`
	Permission model.Permission `json:"permission"`
	AppScope   []string         `json:"app_scope,omitempty"`
	IsActive   bool             `json:"is_active"`
	LastUsedAt *time.Time       `json:"last_used_at,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// ListAPIKeysResponse API 密钥列表.
type ListAPIKeysResponse struct {
	Keys  []APIKeyResponse `json:"keys"`
	Total int              `json:"total"`
}

// ToAPIKeyResponse 将模型转换为响应.
func ToAPIKeyResponse(k *model.APIKey) APIKeyResponse {
	scope, _ := k.AppScope()

	return APIKeyResponse{
		ID:         k.ID,
		Name:       k.Name,
		Permission: k.Permission,
		AppScope:   scope,
		IsActive:   k.IsActive,
		LastUsedAt: k.LastUsedAt,
		CreatedAt:  k.CreatedAt,
	}
}
