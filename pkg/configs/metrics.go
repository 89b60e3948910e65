package configs

import (
	"github.com/spf13/viper"
)

// MetricsConfig Metrics相关配置.
type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`         // 是否启用Metrics
	Path           string `mapstructure:"path"            rule:"omitempty,startswith=/"`
	RuntimeMetrics bool   `mapstructure:"runtime_metrics"` // 是否收集运行时指标
	DBMetrics      bool   `mapstructure:"db_metrics"`      // gorm 连接池指标
	Pprof          bool   `mapstructure:"pprof"`           // 是否暴露 pprof
}

// setDefaults 设置Metrics配置的默认值.
func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.db_metrics", false)
	v.SetDefault("metrics.pprof", false)
}
