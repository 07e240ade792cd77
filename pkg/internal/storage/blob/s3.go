package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/firmvault/pkg/configs"
	flog "github.com/yeisme/firmvault/pkg/log"
)

// S3Store 基于 MinIO/S3 的存储后端.对象键为 <appKey>/<versionName>/<fileName>.
// 上传仍然先写本地临时目录，哈希计算完成后再推送到对象存储.
type S3Store struct {
	client  *minio.Client
	bucket  string
	tempDir string
}

// NewS3Store 初始化 MinIO 客户端，若 bucket 不存在则尝试创建.
func NewS3Store(ctx context.Context, cfg *configs.BlobConfig) (*S3Store, error) {
	s3cfg := cfg.S3

	endpoint := s3cfg.Endpoint
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			s3cfg.UseSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, ""),
		Secure: s3cfg.UseSSL,
		Region: s3cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("firmvault", configs.AppVersion)

	exists, err := cli.BucketExists(ctx, s3cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", s3cfg.Bucket, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, s3cfg.Bucket, minio.MakeBucketOptions{Region: s3cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", s3cfg.Bucket, err)
		}

		flog.Logger().Info().Str("bucket", s3cfg.Bucket).Msg("bucket created")
	}

	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir %s: %w", cfg.TempDir, err)
	}

	flog.Logger().Info().Str("endpoint", s3cfg.Endpoint).Str("bucket", s3cfg.Bucket).Msg("s3 connected")

	return &S3Store{client: cli, bucket: s3cfg.Bucket, tempDir: cfg.TempDir}, nil
}

// objectKey 返回对象键.
func (s *S3Store) objectKey(appKey, versionName, fileName string) string {
	return path.Join(appKey, versionName, fileName)
}

// SaveFile 计算临时文件的 SHA-256 后上传到对象存储，成功后删除临时文件.
func (s *S3Store) SaveFile(ctx context.Context, appKey, versionName string, up Upload) (*SavedFile, error) {
	name := SanitizeFileName(up.OriginalName)
	if name == "" {
		return nil, fmt.Errorf("invalid file name: %q", up.OriginalName)
	}

	hash, size, err := hashFile(up.TempPath)
	if err != nil {
		return nil, fmt.Errorf("hash temp file: %w", err)
	}

	f, err := os.Open(up.TempPath)
	if err != nil {
		return nil, fmt.Errorf("open temp file: %w", err)
	}
	defer f.Close()

	key := s.objectKey(appKey, versionName, name)

	if _, err := s.client.PutObject(ctx, s.bucket, key, f, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
		UserMetadata: map[string]string{
			"sha256": hash,
		},
	}); err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	_ = os.Remove(up.TempPath)

	return &SavedFile{FileName: name, FileHash: hash, FileSize: size}, nil
}

// Open 打开版本文件.
func (s *S3Store) Open(ctx context.Context, appKey, versionName, fileName string) (io.ReadCloser, int64, error) {
	key := s.objectKey(appKey, versionName, SanitizeFileName(fileName))

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, err
	}

	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, 0, err
	}

	return obj, info.Size, nil
}

// DeleteFile 删除单个版本文件.
func (s *S3Store) DeleteFile(ctx context.Context, appKey, versionName, fileName string) error {
	key := s.objectKey(appKey, versionName, SanitizeFileName(fileName))
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// DeleteVersionDir 对象存储没有目录，空前缀自然消失；前缀下若还有对象
// （如并发上传刚写入）必须保留，因此这里不做任何删除.
func (s *S3Store) DeleteVersionDir(_ context.Context, _, _ string) error {
	return nil
}

// DeleteAppDir 删除应用前缀下的全部对象.
func (s *S3Store) DeleteAppDir(ctx context.Context, appKey string) error {
	return s.removePrefix(ctx, appKey+"/")
}

// removePrefix 列出并删除指定前缀下的所有对象.
func (s *S3Store) removePrefix(ctx context.Context, prefix string) error {
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for obj := range objects {
		if obj.Err != nil {
			return obj.Err
		}

		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove object %s: %w", obj.Key, err)
		}
	}

	return nil
}

// TempDir 返回上传临时目录.
func (s *S3Store) TempDir() string {
	return s.tempDir
}

// CleanupTemp 删除滞留的临时文件.临时文件始终在本地磁盘上.
func (s *S3Store) CleanupTemp(_ context.Context, olderThan time.Duration) (int, error) {
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
			if err := os.Remove(path.Join(s.tempDir, entry.Name())); err == nil {
				removed++
			}
		}
	}

	return removed, nil
}

// HealthCheck 通过检查 bucket 验证连接.
func (s *S3Store) HealthCheck(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

// Close 关闭 S3 客户端连接（无实际操作，接口兼容）.
func (s *S3Store) Close() error {
	return nil
}
