package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/internal/handle"
)

// RegisterFileRoutes 本地存储的 baseUrl 可以是任意路径，交给 NoRoute 按前缀匹配.
// 前面的 handlers 先执行，例如公开文件的响应缓存.
func RegisterFileRoutes(engine *gin.Engine, handlers ...gin.HandlerFunc) {
	engine.NoRoute(append(handlers, handle.ServeLocalFile)...)
}
