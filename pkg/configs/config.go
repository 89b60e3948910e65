// Package configs 管理应用程序配置，包括数据库、存储引擎、队列等配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	import "path/to/configs"
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing local storage config:
//
//	config := configs.GetConfig()
//	local := config.Storage.Local
//	fmt.Println("base url:", local.BaseURL, "document root:", local.DocumentRoot)
//
// 兼容旧的环境变量：LOCAL_STORAGE_BASE_URL、LOCAL_STORAGE_DEST、APP_PORT.
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yeisme/attachvault/pkg/rule"
)

// AppVersion 应用版本号.
const AppVersion = "0.1.0"

// EnvPrefix 环境变量前缀.
const EnvPrefix = "ATTACHVAULT"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 监听地址、端口等
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		DB             DBConfig             `mapstructure:"db"`              // DBConfig 数据库配置
		S3             S3Config             `mapstructure:"s3"`              // S3Config 对象存储引擎的默认连接参数
		Storage        StorageConfig        `mapstructure:"storage"`         // StorageConfig 默认本地存储引擎
		Upload         UploadConfig         `mapstructure:"upload"`          // UploadConfig 上传与删除相关参数
		KV             KVConfig             `mapstructure:"kv"`              // KVConfig 存储引擎注册表缓存
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 事件发布
		Events         EventsConfig         `mapstructure:"events"`          // EventsConfig 事件开关
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 监控
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 链路追踪
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 熔断
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// legacyEnv 旧版本使用的环境变量到配置键的映射.
var legacyEnv = map[string]string{
	"storage.local.base_url":      "LOCAL_STORAGE_BASE_URL",
	"storage.local.document_root": "LOCAL_STORAGE_DEST",
	"server.port":                 "APP_PORT",
}

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// 找不到配置文件时只使用默认值和环境变量.
func InitConfig(path string) error {
	// .env 可选，不覆盖已存在的环境变量
	_ = godotenv.Load()

	appViper = viper.New()
	// 设置默认值
	setAllDefaults(appViper)

	if path != "" {
		// 检查path是否是文件
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			appViper.SetConfigFile(path)
		} else {
			appViper.SetConfigName("config")
			appViper.AddConfigPath(path)
			appViper.AddConfigPath(filepath.Join(path, "configs"))

			exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

			for _, ext := range exts {
				cfg := filepath.Join(path, "config."+ext)
				if _, err := os.Stat(cfg); err == nil {
					appViper.SetConfigFile(cfg)

					break
				}
			}
		}
	}

	appViper.SetEnvPrefix(EnvPrefix)
	appViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	appViper.AutomaticEnv()

	for key, env := range legacyEnv {
		if err := appViper.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path != "" {
		if err := appViper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg AppConfig
	if err := appViper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := rule.ValidateStruct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	globalConfig = cfg

	reloadConfigs(appViper, globalConfig.Server.ReloadConfig)

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var (
		serverConfig  ServerConfig
		logConfig     LogConfig
		dbConfig      DBConfig
		s3Config      S3Config
		storageConfig StorageConfig
		uploadConfig  UploadConfig
		kvConfig      KVConfig
		mqConfig      MQConfig
		eventsConfig  EventsConfig
		metricsConfig MetricsConfig
		tracingConfig TracingConfig
		rateLimit     RateLimitConfig
		breaker       CircuitBreakerConfig
	)

	serverConfig.setDefaults(v)
	logConfig.setDefaults(v)
	dbConfig.setDefaults(v)
	s3Config.setDefaults(v)
	storageConfig.setDefaults(v)
	uploadConfig.setDefaults(v)
	kvConfig.setDefaults(v)
	mqConfig.setDefaults(v)
	eventsConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	rateLimit.setDefaults(v)
	breaker.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload || v.ConfigFileUsed() == "" {
		return
	}
	// 启用配置热重载
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)
		fmt.Println("Reloading configuration...")

		if err := v.Unmarshal(&globalConfig); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
		}
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

// SetConfig 替换全局配置，主要用于测试.
func SetConfig(cfg AppConfig) {
	globalConfig = cfg
}

func GetViper() *viper.Viper {
	return appViper
}
