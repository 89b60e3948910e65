package configs

import "github.com/spf13/viper"

// EventsConfig 控制附件事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled    bool                   `mapstructure:"enabled"` // 总开关
	Attachment AttachmentEventsConfig `mapstructure:"attachment"`
}

// AttachmentEventsConfig 附件生命周期事件开关。
type AttachmentEventsConfig struct {
	Stored    bool `mapstructure:"stored"`
	Destroyed bool `mapstructure:"destroyed"`
	Restored  bool `mapstructure:"restored"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)

	v.SetDefault("events.attachment.stored", true)
	v.SetDefault("events.attachment.destroyed", true)
	v.SetDefault("events.attachment.restored", false)
}
