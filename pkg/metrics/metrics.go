// Package metrics 提供 Prometheus 指标：HTTP 请求以及上传、删除的业务计数.
//
// Example:
//
//	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
//		return err
//	}
//	metrics.UploadsTotal.WithLabelValues("local", metrics.ResultOK).Inc()
package metrics

import (
	"net/http"
	"net/http/pprof"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/attachvault/pkg/configs"
)

// 上传结果标签.
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// UploadsTotal 上传次数，result 为 ok / invalid / error.
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachvault_uploads_total",
			Help: "Total number of attachment uploads by storage and result",
		},
		[]string{"storage", "result"},
	)

	// UploadBytesTotal 成功写入的字节数.
	UploadBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachvault_upload_bytes_total",
			Help: "Total bytes written by successful uploads",
		},
		[]string{"storage"},
	)

	// DeletionsTotal 删除次数，outcome 为物理删除的结果.
	DeletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachvault_deletions_total",
			Help: "Total number of attachment deletions by storage and physical outcome",
		},
		[]string{"storage", "outcome"},
	)

	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

// InitMetrics 注册指标，重复调用无副作用.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	var err error

	initOnce.Do(func() {
		if config.RuntimeMetrics {
			if err = registry.Register(collectors.NewGoCollector()); err != nil {
				return
			}

			if err = registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
				return
			}
		}

		for _, c := range []prometheus.Collector{RequestCounter, RequestDuration, UploadsTotal, UploadBytesTotal, DeletionsTotal} {
			if err = registry.Register(c); err != nil {
				return
			}
		}
	})

	return err
}

// Handler 返回同时包含本注册表和默认注册表（GORM 插件写入）的 HTTP 处理器.
func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.Gatherers{registry, prometheus.DefaultGatherer}, promhttp.HandlerOpts{})
}

// RegisterRoutes 在 engine 上挂载 metrics 与可选的 pprof.
func RegisterRoutes(config configs.MetricsConfig, engine *gin.Engine) {
	if !config.Enabled {
		return
	}

	path := config.Path
	if path == "" {
		path = "/metrics"
	}

	engine.GET(path, gin.WrapH(Handler()))

	if config.Pprof {
		debug := engine.Group("/debug/pprof")
		debug.GET("/", gin.WrapF(pprof.Index))
		debug.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		debug.GET("/profile", gin.WrapF(pprof.Profile))
		debug.GET("/symbol", gin.WrapF(pprof.Symbol))
		debug.GET("/trace", gin.WrapF(pprof.Trace))
		debug.GET("/:name", func(c *gin.Context) {
			pprof.Handler(c.Param("name")).ServeHTTP(c.Writer, c.Request)
		})
	}
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
