package configs

import "github.com/spf13/viper"

const (
	DefaultEventsBufferSize = 64 // gochannel 每个主题的缓冲长度
)

// EventsConfig 控制进程内事件总线的开关.
// 事件总线承载审计与版本领域事件（fire-and-forget），失败不影响触发操作.
type EventsConfig struct {
	Enabled    bool `mapstructure:"enabled"`     // 总开关
	BufferSize int  `mapstructure:"buffer_size"` // 每主题缓冲长度
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.buffer_size", DefaultEventsBufferSize)
}
