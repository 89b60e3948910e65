package configs

import "github.com/spf13/viper"

const (
	DefaultRateLimitEnabled = false
	DefaultRateLimitRPS     = 50.0
	DefaultRateLimitBurst   = 100
	DefaultRateLimitKey     = "ip"
	DefaultUploadRPS        = 5.0 // 每个客户端每秒上传次数
	DefaultUploadBurst      = 10
)

// RateLimitConfig 速率限制配置，上传接口单独使用 upload_rps/upload_burst.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"          rule:"min=0"`
	Burst   int     `mapstructure:"burst"        rule:"min=0"`
	// Key 限流维度：global、ip、header:Header-Name
	Key         string  `mapstructure:"key"`
	UploadRPS   float64 `mapstructure:"upload_rps"   rule:"min=0"`
	UploadBurst int     `mapstructure:"upload_burst" rule:"min=0"`
}

// Upload 返回上传接口使用的限流配置.
func (c RateLimitConfig) Upload() RateLimitConfig {
	c.RPS, c.Burst = c.UploadRPS, c.UploadBurst

	return c
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
	v.SetDefault("rate_limit.upload_rps", DefaultUploadRPS)
	v.SetDefault("rate_limit.upload_burst", DefaultUploadBurst)
}
