package handle

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/internal/service"
	"github.com/yeisme/attachvault/pkg/internal/types"
)

// ListFields 列出引用附件的字段声明.
func ListFields(c *gin.Context) {
	ctx := c.Request.Context()

	list, err := service.NewFieldService(ctx).List(ctx)
	if err != nil {
		fail(c, err)

		return
	}

	ok(c, list)
}

// CreateField 声明字段（已存在时更新其存储引擎）.
//
//	@Summary	声明附件字段
//	@Tags		附件字段
//	@Accept		json
//	@Produce	json
//	@Param		field	body		types.CreateFieldRequest	true	"字段"
//	@Success	200		{object}	map[string]model.AttachmentField
//	@Router		/api/v1/fields [post]
func CreateField(c *gin.Context) {
	var req types.CreateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)

		return
	}

	ctx := c.Request.Context()

	f, err := service.NewFieldService(ctx).Create(ctx, req)
	if err != nil {
		fail(c, err)

		return
	}

	ok(c, f)
}

// DeleteField 删除字段声明.
func DeleteField(c *gin.Context) {
	ctx := c.Request.Context()

	if err := service.NewFieldService(ctx).Delete(ctx, c.Param("collection"), c.Param("name")); err != nil {
		fail(c, err)

		return
	}

	ok(c, gin.H{"collection": c.Param("collection"), "name": c.Param("name")})
}
