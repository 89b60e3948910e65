package handle

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/internal/backend"
	"github.com/yeisme/attachvault/pkg/internal/service"
	"github.com/yeisme/attachvault/pkg/internal/types"
)

// ListStorages 列出全部存储引擎.
//
//	@Summary	存储引擎列表
//	@Tags		存储引擎
//	@Produce	json
//	@Success	200	{object}	map[string][]model.Storage
//	@Router		/api/v1/storages [get]
func ListStorages(c *gin.Context) {
	ctx := c.Request.Context()

	list, err := service.NewStorageRegistry(ctx).List(ctx)
	if err != nil {
		fail(c, err)

		return
	}

	ok(c, list)
}

// CreateStorage 创建存储引擎.
//
//	@Summary	创建存储引擎
//	@Tags		存储引擎
//	@Accept		json
//	@Produce	json
//	@Param		storage	body		types.CreateStorageRequest	true	"存储引擎"
//	@Success	200		{object}	map[string]model.Storage
//	@Failure	400		{object}	map[string]string
//	@Router		/api/v1/storages [post]
func CreateStorage(c *gin.Context) {
	var req types.CreateStorageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)

		return
	}

	ctx := c.Request.Context()

	st, err := service.NewStorageRegistry(ctx).Create(ctx, req)
	if err != nil {
		fail(c, err)

		return
	}

	ok(c, st)
}

// GetStorage 按名称查询存储引擎.
//
//	@Summary	存储引擎详情
//	@Tags		存储引擎
//	@Produce	json
//	@Param		name	path		string	true	"名称"
//	@Success	200		{object}	map[string]model.Storage
//	@Failure	404		{object}	map[string]string
//	@Router		/api/v1/storages/{name} [get]
func GetStorage(c *gin.Context) {
	ctx := c.Request.Context()

	st, err := service.NewStorageRegistry(ctx).Get(ctx, c.Param("name"))
	if err != nil {
		fail(c, err)

		return
	}

	ok(c, st)
}

// UpdateStorage 修改存储引擎.
//
//	@Summary	修改存储引擎
//	@Tags		存储引擎
//	@Accept		json
//	@Produce	json
//	@Param		name	path		string						true	"名称"
//	@Param		storage	body		types.UpdateStorageRequest	true	"修改的字段"
//	@Success	200		{object}	map[string]model.Storage
//	@Router		/api/v1/storages/{name} [put]
func UpdateStorage(c *gin.Context) {
	var req types.UpdateStorageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)

		return
	}

	ctx := c.Request.Context()

	st, err := service.NewStorageRegistry(ctx).Update(ctx, c.Param("name"), req)
	if err != nil {
		fail(c, err)

		return
	}

	ok(c, st)
}

// DeleteStorage 删除存储引擎，仍被附件引用时返回 400.
//
//	@Summary	删除存储引擎
//	@Tags		存储引擎
//	@Produce	json
//	@Param		name	path		string	true	"名称"
//	@Success	200		{object}	map[string]string
//	@Router		/api/v1/storages/{name} [delete]
func DeleteStorage(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("name")

	if err := service.NewStorageRegistry(ctx).Delete(ctx, name); err != nil {
		fail(c, err)

		return
	}

	ok(c, gin.H{"name": name})
}

// StorageTypes 返回已注册的后端类型.
func StorageTypes(c *gin.Context) {
	ok(c, backend.Types())
}
