package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

// DBType 数据库类型.
type DBType string

const (
	// SQLite 嵌入式数据库，注册中心的唯一持久化后端.
	SQLite DBType = "sqlite"
)

const (
	DefaultDatabasePath = "data/firmvault.db" // 默认数据库文件路径
	DefaultMaxOpenConns = 1                   // SQLite 写串行化，单连接最稳妥
	DefaultMaxIdleConns = 1                   // 默认最大空闲连接数
)

// DBConfig 数据库配置.
type DBConfig struct {
	Type         DBType `mapstructure:"type"           rule:"oneof=sqlite"`
	Path         string `mapstructure:"path"           rule:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" rule:"min=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" rule:"min=0"`
}

// GetDBType 返回数据库类型的字符串表示.
func (c *DBConfig) GetDBType() string {
	switch c.Type {
	case SQLite:
		return "SQLite"
	default:
		return "Unknown"
	}
}

// GetDSN 获取数据库的连接字符串.
func (c *DBConfig) GetDSN() string {
	if c.Type != SQLite {
		return ""
	}

	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", c.Path)
}

// setDefaults 设置数据库配置的默认值.
func (c *DBConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("db.type", SQLite)
	v.SetDefault("db.path", DefaultDatabasePath)
	v.SetDefault("db.max_open_conns", DefaultMaxOpenConns)
	v.SetDefault("db.max_idle_conns", DefaultMaxIdleConns)
}
