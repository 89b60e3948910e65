package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/configs"
	"github.com/yeisme/attachvault/pkg/internal/handle"
	"github.com/yeisme/attachvault/pkg/middleware"
)

// RegisterAttachmentRoutes 注册附件路由，上传接口单独限流.
func RegisterAttachmentRoutes(g *gin.RouterGroup, limit configs.RateLimitConfig) {
	att := g.Group("/attachments")
	{
		att.POST("", middleware.RateLimitMiddleware(limit.Upload()), handle.CreateAttachment)
		att.GET("", handle.ListAttachments)
		att.DELETE("", handle.DestroyAttachments)
		att.GET("/trash", handle.ListTrashedAttachments)
		att.GET("/:id", handle.GetAttachment)
		att.DELETE("/:id", handle.DestroyAttachment)
		att.POST("/:id/restore", handle.RestoreAttachment)
	}
}
