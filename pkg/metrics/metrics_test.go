package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/attachvault/pkg/configs"
	"github.com/yeisme/attachvault/pkg/metrics"
)

// TestMetricsEndpoint 业务指标出现在 /metrics 输出中.
func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := configs.MetricsConfig{Enabled: true, Path: "/metrics"}
	require.NoError(t, metrics.InitMetrics(cfg))
	require.NoError(t, metrics.InitMetrics(cfg))

	metrics.UploadsTotal.WithLabelValues("local", metrics.ResultOK).Inc()
	metrics.DeletionsTotal.WithLabelValues("local", "physical_skipped").Inc()

	engine := gin.New()
	metrics.RegisterRoutes(cfg, engine)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `attachvault_uploads_total{result="ok",storage="local"} 1`)
	assert.Contains(t, w.Body.String(), `attachvault_deletions_total{outcome="physical_skipped",storage="local"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	engine := gin.New()
	metrics.RegisterRoutes(configs.MetricsConfig{}, engine)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
