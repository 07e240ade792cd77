// Package types 定义请求与响应结构.
package types

import (
	"time"

	"github.com/yeisme/firmvault/pkg/internal/model"
)

// CreateAppRequest 注册应用请求.
type CreateAppRequest struct {
	AppKey string `rule:"required" json:"app_key"`
	// Name 缺省时使用 AppKey
	Name     string `json:"name,omitempty"`
	IsPublic bool   `json:"is_public,omitempty"`
}

// UpdateAppRequest 更新应用请求，未提供的字段保持不变.
type UpdateAppRequest struct {
	Name     *string `json:"name,omitempty"`
	IsPublic *bool   `json:"is_public,omitempty"`
}

// AppResponse 应用信息.
type AppResponse struct {
	ID               uint      `json:"id"`
	AppKey           string    `json:"app_key"`
	Name             string    `json:"name"`
	IsPublic         bool      `json:"is_public"`
	CurrentVersionID *uint     `json:"current_version_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ListAppsResponse 应用列表.
type ListAppsResponse struct {
	Apps  []AppResponse `json:"apps"`
	Total int           `json:"total"`
}

// DeleteAppResponse 删除应用结果，包含被级联清理的版本数.
type DeleteAppResponse struct {
	AppKey          string `json:"app_key"`
	DeletedVersions int64  `json:"deleted_versions"`
}

// ToAppResponse 将模型转换为响应.
func ToAppResponse(a *model.App) AppResponse {
	return AppResponse{
		ID:               a.ID,
		AppKey:           a.AppKey,
		Name:             a.Name,
		IsPublic:         a.IsPublic,
		CurrentVersionID: a.CurrentVersionID,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}
