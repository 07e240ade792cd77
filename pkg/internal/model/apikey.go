package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Permission API 密钥权限等级，read < write < admin 全序.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionAdmin Permission = "admin"
)

// permissionLevels 权限到等级的映射，未知权限为 0.
var permissionLevels = map[Permission]int{
	PermissionRead:  1,
	PermissionWrite: 2,
	PermissionAdmin: 3,
}

// Level 返回权限等级，未知权限返回 0.
func (p Permission) Level() int {
	return permissionLevels[p]
}

// Valid 检查权限是否合法.
func (p Permission) Valid() bool {
	return p.Level() > 0
}

// APIKey API 密钥模型.只保存明文密钥的 SHA-256 哈希，明文在创建时返回一次后不可再取回.
// 删除为软撤销（is_active=false），保留审计来源.
type APIKey struct {
	ID         uint       `gorm:"primaryKey"          json:"id"`
	KeyHash    string     `gorm:"size:64;uniqueIndex" json:"-"`
	Name       string     `gorm:"size:100"            json:"name"`
	Permission Permission `gorm:"size:10"             json:"permission"`
	// AppScopeJSON 以 JSON 数组文本存储密钥可操作的 appKey 白名单，NULL 表示全局
	AppScopeJSON *string `gorm:"type:text" json:"-"`
	IsActive     bool    `gorm:"default:true;index" json:"is_active"`
	// CreatedByKeyID 创建者密钥，仅作审计溯源
	CreatedByKeyID *uint      `json:"created_by_key_id,omitempty"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AppScope 反序列化 app 白名单，NULL 返回 nil 表示全局.
func (k *APIKey) AppScope() ([]string, error) {
	if k.AppScopeJSON == nil || *k.AppScopeJSON == "" {
		return nil, nil
	}

	var scope []string
	if err := json.Unmarshal([]byte(*k.AppScopeJSON), &scope); err != nil {
		return nil, fmt.Errorf("unmarshal app_scope: %w", err)
	}

	return scope, nil
}

// SetAppScope 序列化 app 白名单，空切片视为全局（NULL）.
func (k *APIKey) SetAppScope(scope []string) error {
	if len(scope) == 0 {
		k.AppScopeJSON = nil
		return nil
	}

	b, err := json.Marshal(scope)
	if err != nil {
		return fmt.Errorf("marshal app_scope: %w", err)
	}

	s := string(b)
	k.AppScopeJSON = &s

	return nil
}
