package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/attachvault/pkg/context"
	"github.com/yeisme/attachvault/pkg/internal/backend"
	"github.com/yeisme/attachvault/pkg/internal/service"
)

const timeout = 2 * time.Second

func unhealthy(c *gin.Context, component, msg string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": msg})
}

// HealthDB 数据库健康检查.
func HealthDB(c *gin.Context) {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil || dbc.DB == nil {
		unhealthy(c, "db", "db client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := dbc.Ping(ctx); err != nil {
		unhealthy(c, "db", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "db", "status": "ok"})
}

// HealthKV 缓存存储健康检查.
func HealthKV(c *gin.Context) {
	kvc := ctxPkg.GetKVClient(c.Request.Context())
	if kvc == nil || kvc.KVStore == nil {
		unhealthy(c, "kv", "kv client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := kvc.Ping(ctx); err != nil {
		unhealthy(c, "kv", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "kv", "status": "ok"})
}

// HealthMQ 消息队列健康检查.
func HealthMQ(c *gin.Context) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())
	if mqc == nil {
		unhealthy(c, "mq", "mq client not initialized")
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "mq", "status": "ok", "type": mqc.Type()})
}

// HealthStorages 逐个检查存储引擎是否可写.
func HealthStorages(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	storages, err := service.NewStorageRegistry(ctx).List(ctx)
	if err != nil {
		unhealthy(c, "storages", err.Error())
		return
	}

	status := http.StatusOK
	results := make(map[string]string, len(storages))

	for i := range storages {
		st := &storages[i]

		b, err := backend.Get(st.Type)
		if err != nil {
			results[st.Name] = err.Error()
			status = http.StatusServiceUnavailable

			continue
		}

		checker, ok := b.(backend.Checker)
		if !ok {
			results[st.Name] = "unchecked"
			continue
		}

		if err := checker.Check(ctx, st); err != nil {
			results[st.Name] = err.Error()
			status = http.StatusServiceUnavailable

			continue
		}

		results[st.Name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "unhealthy"
	}

	c.JSON(status, gin.H{"component": "storages", "status": state, "storages": results})
}
