package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/attachvault/pkg/cache"
	"github.com/yeisme/attachvault/pkg/log"
)

const (
	cacheStatusHeader = "X-Cache"
	cacheBypassHeader = "X-Cache-Bypass"
)

// ResponseCacheConfig 响应缓存配置.
type ResponseCacheConfig struct {
	Cache *appcache.Cache
	TTL   time.Duration
	// MaxBodyBytes 超过该大小的响应不缓存，0 不限制
	MaxBodyBytes int
	// Skipper 返回 true 时跳过缓存
	Skipper func(*gin.Context) bool
}

// cachedResponse KV 中保存的响应.
type cachedResponse struct {
	Status   int               `json:"s"`
	Header   map[string]string `json:"h,omitempty"`
	Body     []byte            `json:"b,omitempty"`
	StoredAt int64             `json:"t"`
}

// ResponseCacheMiddleware 缓存 GET/HEAD 的 200 响应. 公开文件名由 ULID 生成不会被覆盖，
// 但删除后在 TTL 内仍可能从缓存读到，TTL 应按可接受的延迟设置.
func ResponseCacheMiddleware(cfg ResponseCacheConfig) gin.HandlerFunc {
	if cfg.Cache == nil || cfg.TTL <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Next()
			return
		}

		if c.GetHeader(cacheBypassHeader) != "" || (cfg.Skipper != nil && cfg.Skipper(c)) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("rc:%x", xxhash.Sum64String(c.Request.URL.Path))

		if entry, err := appcache.Get[cachedResponse](ctx, cfg.Cache, key); err == nil {
			writeCached(c, entry)
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer, max: cfg.MaxBodyBytes}
		c.Writer = w

		c.Next()

		if c.Request.Method != http.MethodGet || w.Status() != http.StatusOK || w.overflow {
			return
		}

		entry := cachedResponse{
			Status:   http.StatusOK,
			Header:   map[string]string{},
			Body:     bytes.Clone(w.buf.Bytes()),
			StoredAt: time.Now().UnixNano(),
		}

		for _, h := range []string{"Content-Type", "ETag", "Last-Modified"} {
			if v := w.Header().Get(h); v != "" {
				entry.Header[h] = v
			}
		}

		go func(ctx context.Context) {
			if err := appcache.Set(ctx, cfg.Cache, key, entry, cfg.TTL); err != nil {
				l := log.Logger()
				l.Debug().Err(err).Str("key", key).Msg("store cached response failed")
			}
		}(context.WithoutCancel(ctx))
	}
}

func writeCached(c *gin.Context, entry cachedResponse) {
	h := c.Writer.Header()
	for k, v := range entry.Header {
		h.Set(k, v)
	}

	h.Set(cacheStatusHeader, "HIT")
	h.Set("Age", fmt.Sprintf("%.0f", time.Since(time.Unix(0, entry.StoredAt)).Seconds()))

	if etag := entry.Header["ETag"]; etag != "" && c.GetHeader("If-None-Match") == etag {
		c.AbortWithStatus(http.StatusNotModified)
		return
	}

	c.Status(entry.Status)

	if c.Request.Method != http.MethodHead {
		_, _ = c.Writer.Write(entry.Body)
	}

	c.Abort()
}

// captureWriter 在写出响应的同时保留一份副本.
type captureWriter struct {
	gin.ResponseWriter

	buf      bytes.Buffer
	max      int
	overflow bool
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.max > 0 && w.buf.Len()+len(b) > w.max {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}

	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteHeader(code int) {
	if code == http.StatusOK {
		w.Header().Set(cacheStatusHeader, "MISS")
	}

	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}
