// Package app 提供应用程序的初始化和运行.
package app

import (
	contextPkg "context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/attachvault/pkg/api"
	"github.com/yeisme/attachvault/pkg/configs"
	"github.com/yeisme/attachvault/pkg/context"
	"github.com/yeisme/attachvault/pkg/internal/jobs"
	"github.com/yeisme/attachvault/pkg/internal/service"
	"github.com/yeisme/attachvault/pkg/internal/storage"
	"github.com/yeisme/attachvault/pkg/log"
	"github.com/yeisme/attachvault/pkg/metrics"
	"github.com/yeisme/attachvault/pkg/scheduler"
	"github.com/yeisme/attachvault/pkg/tracing"
)

// shutdownTimeout 等待进行中的请求结束的最长时间.
const shutdownTimeout = 15 * time.Second

type App struct {
	Engine *gin.Engine
	config *configs.AppConfig

	manager *storage.Manager
	sched   *scheduler.Scheduler
}

// NewApp 加载配置并初始化日志、追踪、监控、存储和定时任务，任一步失败时退出进程.
func NewApp(configPath string) *App {
	ctx := contextPkg.Background()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	log.Init()

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	if !config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化追踪
	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	ctx = context.WithStorageManager(ctx, manager)

	if st, err := service.NewStorageRegistry(ctx).EnsureDefaultStorage(ctx); err != nil {
		l.Error().Err(err).Msg("seed default storage failed")
	} else if st != nil {
		l.Info().Str("storage", st.Name).Msg("default storage ready")
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterCronJobs(sched, manager, config.Upload); err != nil {
		fmt.Printf("Error registering jobs: %v\n", err)
		os.Exit(1)
	}

	engine := api.NewEngine(config, manager, sched)
	metrics.RegisterRoutes(config.Metrics, engine)

	return &App{
		Engine:  engine,
		config:  config,
		manager: manager,
		sched:   sched,
	}
}

// Run 启动调度器和 HTTP 服务，收到 SIGINT/SIGTERM 后优雅退出.
func (a *App) Run() error {
	l := log.Logger()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	ctx, stop := signal.NotifyContext(contextPkg.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.sched.Start()

	errCh := make(chan error, 1)

	go func() {
		l.Info().Str("addr", srv.Addr).Msg("http server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	var runErr error

	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		l.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := contextPkg.WithTimeout(contextPkg.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("http server shutdown failed")
	}

	if err := a.sched.Shutdown(); err != nil {
		l.Error().Err(err).Msg("scheduler shutdown failed")
	}

	if err := tracing.ShutdownTracer(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("tracer shutdown failed")
	}

	if err := a.manager.Close(); err != nil {
		l.Error().Err(err).Msg("storage close failed")
	}

	return runErr
}
