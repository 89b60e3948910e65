// Package api 组装 HTTP 服务：全局中间件、管理接口和公开文件访问.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/configs"
	"github.com/yeisme/attachvault/pkg/internal/router"
	"github.com/yeisme/attachvault/pkg/internal/storage"
	"github.com/yeisme/attachvault/pkg/internal/storage/kv"
	"github.com/yeisme/attachvault/pkg/middleware"
	"github.com/yeisme/attachvault/pkg/rule"
	"github.com/yeisme/attachvault/pkg/scheduler"
)

// NewEngine 创建挂载了全部中间件和路由的 gin 引擎，sched 为 nil 时任务接口返回 503.
func NewEngine(cfg *configs.AppConfig, mgr *storage.Manager, sched *scheduler.Scheduler) *gin.Engine {
	// gin 绑定与 service 共用 rule 标签
	rule.Engine()

	engine := gin.New()
	engine.MaxMultipartMemory = cfg.Server.MaxMultipartMemory

	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(cfg.Server),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(cfg.RateLimit),
		middleware.StorageMiddleware(mgr),
		middleware.SchedulerMiddleware(sched),
	)

	return RegisterGroup(engine, cfg, mgr)
}

// RegisterGroup 注册路由到传入的 gin 引擎.
func RegisterGroup(e *gin.Engine, cfg *configs.AppConfig, mgr *storage.Manager) *gin.Engine {
	var store kv.KVStore
	if kvc := mgr.GetKVClient(); kvc != nil {
		store = kvc.KVStore
	}

	router.Register(e, cfg, store)

	return e
}
