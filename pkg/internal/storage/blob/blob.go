// Package blob 处理版本文件的落盘存储.
//
// 文件按 <appKey>/<versionName>/<fileName> 布局存放，上传先写入临时目录，
// 校验与哈希计算完成后再移动到最终位置.支持本地文件系统与 S3 两种后端.
package blob

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/yeisme/firmvault/pkg/configs"
)

// Upload 描述一个已写入临时目录、等待入库的上传文件.
type Upload struct {
	// TempPath 临时文件的绝对路径，保存成功后由存储后端消费（移动或删除）.
	TempPath string
	// OriginalName 客户端提供的文件名，保存前会被清洗.
	OriginalName string
	// Size 文件字节数.
	Size int64
}

// SavedFile 是保存完成后的文件元数据.
type SavedFile struct {
	FileName string
	FileHash string // SHA-256 十六进制
	FileSize int64
}

// Store 定义版本文件存储后端接口.
type Store interface {
	// SaveFile 将临时文件保存到 <appKey>/<versionName>/ 下，计算 SHA-256.
	// 成功后临时文件被消费；失败时临时文件保留，由调用方清理.
	SaveFile(ctx context.Context, appKey, versionName string, up Upload) (*SavedFile, error)
	// Open 打开版本文件用于下载，返回读取器与文件大小.
	Open(ctx context.Context, appKey, versionName, fileName string) (io.ReadCloser, int64, error)
	// DeleteFile 删除单个版本文件.
	DeleteFile(ctx context.Context, appKey, versionName, fileName string) error
	// DeleteVersionDir 移除已空的版本目录；目录里仍有文件（如并发上传刚落盘）时保持不动.
	DeleteVersionDir(ctx context.Context, appKey, versionName string) error
	// DeleteAppDir 删除应用的全部文件.
	DeleteAppDir(ctx context.Context, appKey string) error
	// TempDir 返回上传临时目录，调用方向其中写入待保存文件.
	TempDir() string
	// CleanupTemp 删除临时目录中滞留超过 olderThan 的文件，返回删除数量.
	CleanupTemp(ctx context.Context, olderThan time.Duration) (int, error)
	// HealthCheck 验证后端可用.
	HealthCheck(ctx context.Context) error
	// Close 释放后端资源.
	Close() error
}

const maxFileNameLen = 255

var unsafeFileChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFileName 清洗文件名：去除路径分隔符等危险字符与 ".."，截断到 255 字符.
func SanitizeFileName(name string) string {
	s := unsafeFileChars.ReplaceAllString(name, "")
	s = strings.ReplaceAll(s, "..", "")
	s = strings.TrimSpace(s)

	if len(s) > maxFileNameLen {
		s = s[:maxFileNameLen]
	}

	return s
}

// New 根据配置创建存储后端.
func New(ctx context.Context) (Store, error) {
	cfg := configs.GetConfig().Blob

	switch cfg.Type {
	case configs.BlobFS:
		return NewFSStore(&cfg)
	case configs.BlobS3:
		return NewS3Store(ctx, &cfg)
	default:
		return nil, fmt.Errorf("unsupported blob type: %s", cfg.Type)
	}
}
