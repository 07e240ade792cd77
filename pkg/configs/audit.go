package configs

import "github.com/spf13/viper"

const (
	DefaultAuditRetentionDays = 90 // 审计记录保留天数
)

// AuditConfig 审计日志配置.
type AuditConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	RetentionDays int  `mapstructure:"retention_days" rule:"min=1"`
}

func (c *AuditConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.retention_days", DefaultAuditRetentionDays)
}
