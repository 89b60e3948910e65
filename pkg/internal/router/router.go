// Package router 管理路由配置，用于设置 HTTP 服务的路由.
package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/attachvault/pkg/cache"
	"github.com/yeisme/attachvault/pkg/configs"
	"github.com/yeisme/attachvault/pkg/internal/storage/kv"
	"github.com/yeisme/attachvault/pkg/middleware"
)

// APIPrefix 管理接口前缀.
const APIPrefix = "/api/v1"

// serveCacheNamespace 公开文件响应缓存在 KV 中的命名空间.
const serveCacheNamespace = "serve"

// Register 在 engine 上挂载管理接口和公开文件访问，store 为 nil 时不缓存公开文件.
//
//	/api/v1/attachments     附件上传、列表、删除、恢复
//	/api/v1/storages        存储引擎注册表
//	/api/v1/fields          附件字段
//	/api/v1/health          依赖健康检查
//	/api/v1/scheduler       定时任务
//	其它 GET/HEAD           本地存储的公开文件
func Register(engine *gin.Engine, cfg *configs.AppConfig, store kv.KVStore) {
	api := engine.Group(APIPrefix, gzip.Gzip(gzip.DefaultCompression))

	// 健康检查的 503 不计入熔断
	guarded := api.Group("", middleware.CircuitBreakerMiddleware("api", cfg.CircuitBreaker))
	RegisterAttachmentRoutes(guarded, cfg.RateLimit)
	RegisterStorageRoutes(guarded)
	RegisterFieldRoutes(guarded)

	RegisterHealthCheckRoute(api)
	RegisterSchedulerRoutes(api)

	RegisterSwaggerRoute(engine, cfg.Server)

	var fileCache middleware.ResponseCacheConfig
	if store != nil {
		fileCache = middleware.ResponseCacheConfig{
			Cache:        appcache.NewCache(store, serveCacheNamespace),
			TTL:          cfg.Storage.ServeCacheTTL,
			MaxBodyBytes: cfg.Storage.ServeCacheMaxBytes,
		}
	}

	RegisterFileRoutes(engine, middleware.ResponseCacheMiddleware(fileCache))
}
