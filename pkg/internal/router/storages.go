package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/internal/handle"
)

// RegisterStorageRoutes 注册存储引擎路由.
func RegisterStorageRoutes(g *gin.RouterGroup) {
	g.GET("/storage-types", handle.StorageTypes)

	st := g.Group("/storages")
	{
		st.GET("", handle.ListStorages)
		st.POST("", handle.CreateStorage)
		st.GET("/:name", handle.GetStorage)
		st.PUT("/:name", handle.UpdateStorage)
		st.DELETE("/:name", handle.DeleteStorage)
	}
}

// RegisterFieldRoutes 注册附件字段路由.
func RegisterFieldRoutes(g *gin.RouterGroup) {
	fields := g.Group("/fields")
	{
		fields.GET("", handle.ListFields)
		fields.POST("", handle.CreateField)
		fields.DELETE("/:collection/:name", handle.DeleteField)
	}
}
