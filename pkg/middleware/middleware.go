// Package middleware 提供 gin 中间件：请求 ID、日志、指标、追踪、限流、熔断、响应缓存，
// 以及把存储资源和调度器注入到请求 context.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 请求 ID 头.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestIDMiddleware 沿用客户端传入的请求 ID，没有时生成一个.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID 返回当前请求的 ID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
