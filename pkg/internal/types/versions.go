package types

import (
	"fmt"
	"time"

	"github.com/yeisme/firmvault/pkg/internal/model"
)

// VersionFileResponse 版本文件元数据，下载 URL 由当前标识符推导，不落库.
type VersionFileResponse struct {
	ID          uint      `json:"id"`
	FileName    string    `json:"file_name"`
	FileHash    string    `json:"file_hash"`
	FileSize    int64     `json:"file_size"`
	DownloadURL string    `json:"download_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// VersionResponse 版本信息.
type VersionResponse struct {
	ID          uint                  `json:"id"`
	AppKey      string                `json:"app_key"`
	VersionName string                `json:"version_name"`
	IsActive    bool                  `json:"is_active"`
	Files       []VersionFileResponse `json:"files"`
	CreatedAt   time.Time             `json:"created_at"`
}

// ListVersionsResponse 版本列表，新版本在前.
type ListVersionsResponse struct {
	Versions []VersionResponse `json:"versions"`
	Total    int               `json:"total"`
}

// UploadVersionRequest 上传版本请求的表单字段.
type UploadVersionRequest struct {
	// VersionName 缺省时按最近版本名自动递增
	VersionName string `form:"version_name" json:"version_name,omitempty"`
}

// SetActiveVersionRequest 切换活跃版本请求.
type SetActiveVersionRequest struct {
	VersionID uint `rule:"required" json:"version_id"`
}

// DownloadURL 推导版本文件的下载路径.
func DownloadURL(appKey, versionName, fileName string) string {
	return fmt.Sprintf("/files/%s/%s/%s", appKey, versionName, fileName)
}

// ToVersionResponse 将模型转换为响应，isActive 由应用的活跃版本指针决定.
func ToVersionResponse(appKey string, v *model.Version, currentVersionID *uint) VersionResponse {
	files := make([]VersionFileResponse, 0, len(v.Files))
	for i := range v.Files {
		f := &v.Files[i]
		files = append(files, VersionFileResponse{
			ID:          f.ID,
			FileName:    f.FileName,
			FileHash:    f.FileHash,
			FileSize:    f.FileSize,
			DownloadURL: DownloadURL(appKey, v.VersionName, f.FileName),
			CreatedAt:   f.CreatedAt,
		})
	}

	return VersionResponse{
		ID:          v.ID,
		AppKey:      appKey,
		VersionName: v.VersionName,
		IsActive:    currentVersionID != nil && *currentVersionID == v.ID,
		Files:       files,
		CreatedAt:   v.CreatedAt,
	}
}
