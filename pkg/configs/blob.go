package configs

import (
	"github.com/spf13/viper"
)

// BlobType 版本文件存储后端类型.
type BlobType string

const (
	// BlobFS 本地文件系统后端（默认）.
	BlobFS BlobType = "fs"
	// BlobS3 S3/MinIO 对象存储后端.
	BlobS3 BlobType = "s3"
)

const (
	DefaultBlobRoot    = "data/files"       // 版本文件根目录
	DefaultBlobTempDir = "data/tmp_uploads" // 上传临时目录
)

// BlobConfig 版本文件存储配置.
type BlobConfig struct {
	Type    BlobType     `mapstructure:"type"     rule:"oneof=fs s3"`
	Root    string       `mapstructure:"root"     rule:"required"` // fs 后端的根目录
	TempDir string       `mapstructure:"temp_dir" rule:"required"` // 上传暂存目录（与 root 同一文件系统）
	S3      S3BlobConfig `mapstructure:"s3"`
}

// S3BlobConfig S3/MinIO 后端配置.
type S3BlobConfig struct {
	Endpoint        string `mapstructure:"endpoint"          rule:"hostname_port"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
}

// setDefaults 设置文件存储配置的默认值.
func (c *BlobConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("blob.type", BlobFS)
	v.SetDefault("blob.root", DefaultBlobRoot)
	v.SetDefault("blob.temp_dir", DefaultBlobTempDir)

	v.SetDefault("blob.s3.endpoint", "localhost:9000")
	v.SetDefault("blob.s3.use_ssl", false)
	v.SetDefault("blob.s3.region", "")
	v.SetDefault("blob.s3.bucket", "firmvault")
}
