package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultTokenTTLHours = 12 // 会话 token 有效期（小时）
)

// AuthConfig 认证相关配置.
//   - JWTSecret 用于签发/校验会话 token（HS256）
//   - AdminAPIKey 引导管理密钥：匹配时直接获得全局 admin 权限，不经过数据库
type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"      rule:"required"`
	AdminAPIKey   string `mapstructure:"admin_api_key"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours" rule:"min=1,max=168"`
}

// GetTokenTTL 返回会话 token 有效期.
func (c *AuthConfig) GetTokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.jwt_secret", "super-secret-key-change-this")
	v.SetDefault("auth.admin_api_key", "")
	v.SetDefault("auth.token_ttl_hours", DefaultTokenTTLHours)
}
