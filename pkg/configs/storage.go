package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultLocalStorageName     = "local"           // 首次启动时创建的默认存储引擎名称
	DefaultLocalStorageBaseURL  = "/storage/uploads" // LOCAL_STORAGE_BASE_URL
	DefaultLocalStorageDest     = "storage/uploads"  // LOCAL_STORAGE_DEST
	DefaultSeedDefaultStorage   = true               // 没有任何存储引擎时自动创建默认本地存储
	DefaultRegistryCacheTTL     = 5 * time.Minute    // 注册表缓存时间
	DefaultUploadDeleteParallel = 4                  // 批量删除的并发度
	DefaultTempSweepCron        = "*/30 * * * *"     // 清理残留临时文件的 cron
	DefaultTempMaxAge           = time.Hour          // 临时文件最大保留时间
	DefaultServeCacheMaxBytes   = 1 << 20            // 公开文件响应缓存的单个文件上限
)

// StorageConfig 存储引擎注册表相关配置.
type StorageConfig struct {
	Local       LocalStorageConfig `mapstructure:"local"`
	SeedDefault bool               `mapstructure:"seed_default"`
	CacheTTL    time.Duration      `mapstructure:"cache_ttl"`
	// ServeCacheTTL 公开文件响应在 KV 中的缓存时间，0 关闭
	ServeCacheTTL      time.Duration `mapstructure:"serve_cache_ttl"`
	ServeCacheMaxBytes int           `mapstructure:"serve_cache_max_bytes" rule:"min=0"`
}

// LocalStorageConfig 默认本地存储引擎.
type LocalStorageConfig struct {
	Name         string `mapstructure:"name"          rule:"required"`
	BaseURL      string `mapstructure:"base_url"`
	DocumentRoot string `mapstructure:"document_root" rule:"required"`
}

// UploadConfig 上传与删除相关参数.
type UploadConfig struct {
	DeleteParallel int           `mapstructure:"delete_parallel" rule:"min=1,max=64"`
	TempSweepCron  string        `mapstructure:"temp_sweep_cron"`
	TempMaxAge     time.Duration `mapstructure:"temp_max_age"`
}

func (c *StorageConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("storage.local.name", DefaultLocalStorageName)
	v.SetDefault("storage.local.base_url", DefaultLocalStorageBaseURL)
	v.SetDefault("storage.local.document_root", DefaultLocalStorageDest)
	v.SetDefault("storage.seed_default", DefaultSeedDefaultStorage)
	v.SetDefault("storage.cache_ttl", DefaultRegistryCacheTTL)
	v.SetDefault("storage.serve_cache_ttl", time.Duration(0))
	v.SetDefault("storage.serve_cache_max_bytes", DefaultServeCacheMaxBytes)
}

func (c *UploadConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("upload.delete_parallel", DefaultUploadDeleteParallel)
	v.SetDefault("upload.temp_sweep_cron", DefaultTempSweepCron)
	v.SetDefault("upload.temp_max_age", DefaultTempMaxAge)
}
