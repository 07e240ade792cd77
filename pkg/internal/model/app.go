// Package model 定义数据库实体.
package model

import (
	"time"
)

// App 应用模型.appKey 全局唯一且不可变，current_version_id 指向当前活跃版本.
type App struct {
	ID     uint   `gorm:"primaryKey"              json:"id"`
	AppKey string `gorm:"size:50;uniqueIndex"     json:"app_key"`
	Name   string `gorm:"size:100"                json:"name"`
	// IsPublic 为 true 时，latest 查询与文件下载对匿名请求开放
	IsPublic bool `gorm:"default:false" json:"is_public"`
	// CurrentVersionID 活跃版本指针，可为空；删除应用前必须先置空以避免外键悬挂
	CurrentVersionID *uint     `json:"current_version_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Version 版本模型.(app_id, version_name) 唯一.
type Version struct {
	ID          uint      `gorm:"primaryKey"                                json:"id"`
	AppID       uint      `gorm:"index:idx_app_version,unique;index"        json:"app_id"`
	VersionName string    `gorm:"size:50;index:idx_app_version,unique"      json:"version_name"`
	CreatedAt   time.Time `gorm:"index"                                     json:"created_at"`

	Files []VersionFile `gorm:"foreignKey:VersionID" json:"files,omitempty"`
}

// VersionFile 版本文件模型.file_hash 为落盘字节的 SHA-256 十六进制摘要.
type VersionFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VersionID uint      `gorm:"index"      json:"version_id"`
	FileName  string    `gorm:"size:255"   json:"file_name"`
	FileHash  string    `gorm:"size:64"    json:"file_hash"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
}

// AllModels 返回需要迁移的全部模型.
func AllModels() []any {
	return []any{
		&App{},
		&Version{},
		&VersionFile{},
		&APIKey{},
		&AuditLog{},
	}
}
