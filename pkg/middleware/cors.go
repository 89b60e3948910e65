package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/configs"
)

// CORSMiddleware CORS中间件，公开文件需要跨域读取 ETag 等头.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowFiles = true
	config.AllowHeaders = append(config.AllowHeaders, RequestIDHeader, "If-None-Match")
	config.ExposeHeaders = []string{"ETag", "Content-Length", RequestIDHeader, cacheStatusHeader}

	if cfg.Debug {
		config.AllowBrowserExtensions = true
	}

	return cors.New(config)
}
