package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool              `mapstructure:"enabled"` // 总开关
	Paste   PasteEventsConfig `mapstructure:"paste"`
}

// PasteEventsConfig 粘贴生命周期事件开关。
type PasteEventsConfig struct {
	Created   bool `mapstructure:"created"`
	Completed bool `mapstructure:"completed"`
	Accessed  bool `mapstructure:"accessed"`
	Updated   bool `mapstructure:"updated"`
	Deleted   bool `mapstructure:"deleted"`
	Reaped    bool `mapstructure:"reaped"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认关闭，开启后需要可用的 mq
	v.SetDefault("events.enabled", false)

	v.SetDefault("events.paste.created", true)
	v.SetDefault("events.paste.completed", true)
	v.SetDefault("events.paste.deleted", true)
	v.SetDefault("events.paste.reaped", true)
	v.SetDefault("events.paste.updated", false)
	v.SetDefault("events.paste.accessed", false) // 访问事件量可能很大，默认关闭
}
