package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/yeisme/firmvault/pkg/configs"
	flog "github.com/yeisme/firmvault/pkg/log"
)

// FSStore 基于本地文件系统的存储后端.
type FSStore struct {
	root    string
	tempDir string
}

// NewFSStore 创建文件系统后端，确保根目录与临时目录存在.
func NewFSStore(cfg *configs.BlobConfig) (*FSStore, error) {
	for _, dir := range []string{cfg.Root, cfg.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create blob dir %s: %w", dir, err)
		}
	}

	flog.Logger().Info().Str("root", cfg.Root).Msg("文件存储已初始化")

	return &FSStore{root: cfg.Root, tempDir: cfg.TempDir}, nil
}

// versionDir 返回版本目录路径.
func (s *FSStore) versionDir(appKey, versionName string) string {
	return filepath.Join(s.root, appKey, versionName)
}

// SaveFile 计算临时文件的 SHA-256 后原子移动到版本目录.
// 临时目录与根目录须在同一文件系统上，rename 才是原子的.
func (s *FSStore) SaveFile(_ context.Context, appKey, versionName string, up Upload) (*SavedFile, error) {
	name := SanitizeFileName(up.OriginalName)
	if name == "" {
		return nil, fmt.Errorf("invalid file name: %q", up.OriginalName)
	}

	hash, size, err := hashFile(up.TempPath)
	if err != nil {
		return nil, fmt.Errorf("hash temp file: %w", err)
	}

	dir := s.versionDir(appKey, versionName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create version dir: %w", err)
	}

	dst := filepath.Join(dir, name)
	if err := os.Rename(up.TempPath, dst); err != nil {
		return nil, fmt.Errorf("move file into place: %w", err)
	}

	return &SavedFile{FileName: name, FileHash: hash, FileSize: size}, nil
}

// Open 打开版本文件.文件名先经过清洗，杜绝路径穿越.
func (s *FSStore) Open(_ context.Context, appKey, versionName, fileName string) (io.ReadCloser, int64, error) {
	path := filepath.Join(s.versionDir(appKey, versionName), SanitizeFileName(fileName))

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}

	return f, info.Size(), nil
}

// DeleteFile 删除单个版本文件，文件已不存在时不视为错误.
func (s *FSStore) DeleteFile(_ context.Context, appKey, versionName, fileName string) error {
	path := filepath.Join(s.versionDir(appKey, versionName), SanitizeFileName(fileName))

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	// 版本目录空了就顺手移除
	_ = os.Remove(s.versionDir(appKey, versionName))

	return nil
}

// DeleteVersionDir 移除版本目录，仅当目录已空时才删除.
// 并发上传可能在删除期间往目录里落新文件，这些文件必须保留.
func (s *FSStore) DeleteVersionDir(_ context.Context, appKey, versionName string) error {
	dir := s.versionDir(appKey, versionName)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	if len(entries) > 0 {
		return nil
	}

	if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
		return err
	}

	// 应用目录空了就顺手移除
	_ = os.Remove(filepath.Join(s.root, appKey))

	return nil
}

// DeleteAppDir 删除应用的全部文件.
func (s *FSStore) DeleteAppDir(_ context.Context, appKey string) error {
	return os.RemoveAll(filepath.Join(s.root, appKey))
}

// TempDir 返回上传临时目录.
func (s *FSStore) TempDir() string {
	return s.tempDir
}

// CleanupTemp 删除滞留的临时文件.
func (s *FSStore) CleanupTemp(_ context.Context, olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.tempDir, entry.Name())); err == nil {
				removed++
			}
		}
	}

	return removed, nil
}

// HealthCheck 验证根目录可访问.
func (s *FSStore) HealthCheck(_ context.Context) error {
	_, err := os.Stat(s.root)
	return err
}

// Close 关闭存储（文件系统实现无需操作）.
func (s *FSStore) Close() error {
	return nil
}

// hashFile 流式计算文件的 SHA-256，返回十六进制摘要与字节数.
func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()

	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}

	return hex.EncodeToString(h.Sum(nil)), size, nil
}
