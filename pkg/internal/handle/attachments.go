package handle

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/internal/service"
	"github.com/yeisme/attachvault/pkg/internal/types"
)

// FileFieldName multipart 中文件字段的名称.
const FileFieldName = "file"

// CreateAttachment 上传文件并创建附件记录.
//
//	@Summary		上传附件
//	@Description	multipart 上传，存储引擎按 storage > attachmentField > 默认引擎 解析，违反引擎规则时返回 400
//	@Tags			附件
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file			formData	file	true	"文件"
//	@Param			storage			formData	string	false	"存储引擎名称"
//	@Param			attachmentField	formData	string	false	"引用字段，例如 customers.avatar"
//	@Param			meta			formData	string	false	"JSON 对象"
//	@Success		200				{object}	map[string]model.Attachment
//	@Failure		400				{object}	map[string]string
//	@Failure		500				{object}	map[string]string
//	@Router			/api/v1/attachments [post]
func CreateAttachment(c *gin.Context) {
	header, err := c.FormFile(FileFieldName)
	if err != nil {
		badRequest(c, fmt.Errorf("form field %q: %w", FileFieldName, err))

		return
	}

	var meta map[string]any

	if raw := c.PostForm("meta"); raw != "" {
		if err := sonic.UnmarshalString(raw, &meta); err != nil {
			badRequest(c, fmt.Errorf("meta must be a JSON object: %w", err))

			return
		}
	}

	f, err := header.Open()
	if err != nil {
		fail(c, err)

		return
	}
	defer f.Close()

	ctx := c.Request.Context()
	svc := service.NewAttachmentService(ctx)

	att, err := svc.Create(ctx, service.Upload{
		Reader:   f,
		Filename: header.Filename,
		Size:     header.Size,
		Mimetype: header.Header.Get("Content-Type"),
		Storage:  c.PostForm("storage"),
		Field:    c.PostForm("attachmentField"),
		Meta:     meta,
	})
	if err != nil {
		fail(c, err)

		return
	}

	ok(c, att)
}

// ListAttachments 分页列出附件.
//
//	@Summary	附件列表
//	@Tags		附件
//	@Produce	json
//	@Param		page		query		int	false	"页码"
//	@Param		pageSize	query		int	false	"每页数量"
//	@Success	200			{object}	types.AttachmentListResponse
//	@Router		/api/v1/attachments [get]
func ListAttachments(c *gin.Context) {
	listAttachments(c, false)
}

// ListTrashedAttachments 列出 paranoid 引擎下被删除、文件仍保留的附件.
//
//	@Summary	回收站
//	@Tags		附件
//	@Produce	json
//	@Success	200	{object}	types.AttachmentListResponse
//	@Router		/api/v1/attachments/trash [get]
func ListTrashedAttachments(c *gin.Context) {
	listAttachments(c, true)
}

func listAttachments(c *gin.Context, trashed bool) {
	var req types.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)

		return
	}

	req.Normalize()

	ctx := c.Request.Context()
	svc := service.NewAttachmentService(ctx)
	list := svc.List

	if trashed {
		list = svc.ListTrashed
	}

	rows, total, err := list(ctx, req.Page, req.PageSize)
	if err != nil {
		fail(c, err)

		return
	}

	c.JSON(http.StatusOK, types.AttachmentListResponse{
		Data: rows,
		Meta: types.NewListMeta(total, req.Page, req.PageSize),
	})
}

// GetAttachment 查询单个附件，已删除时返回 404.
//
//	@Summary	附件详情
//	@Tags		附件
//	@Produce	json
//	@Param		id	path		int	true	"附件 ID"
//	@Success	200	{object}	map[string]model.Attachment
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/attachments/{id} [get]
func GetAttachment(c *gin.Context) {
	id, valid := paramID(c)
	if !valid {
		return
	}

	ctx := c.Request.Context()

	att, err := service.NewAttachmentService(ctx).Get(ctx, id)
	if err != nil {
		fail(c, err)

		return
	}

	ok(c, att)
}

// DestroyAttachment 按主键删除附件.
//
//	@Summary	删除附件
//	@Tags		附件
//	@Produce	json
//	@Param		id	path		int	true	"附件 ID"
//	@Success	200	{object}	map[string]types.DestroyResponse
//	@Router		/api/v1/attachments/{id} [delete]
func DestroyAttachment(c *gin.Context) {
	id, valid := paramID(c)
	if !valid {
		return
	}

	destroy(c, []uint{id})
}

// DestroyAttachments 批量删除，主键来自 query 中的 filterByTk 或 body 中的 filter.id.
//
//	@Summary	批量删除附件
//	@Tags		附件
//	@Accept		json
//	@Produce	json
//	@Param		filterByTk	query		[]int								false	"附件 ID"
//	@Param		body		body		types.DestroyAttachmentsRequest	false	"filter"
//	@Success	200			{object}	map[string]types.DestroyResponse
//	@Router		/api/v1/attachments [delete]
func DestroyAttachments(c *gin.Context) {
	var req types.DestroyAttachmentsRequest

	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)

			return
		}
	}

	for _, raw := range c.QueryArray("filterByTk") {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid filterByTk %q", raw))

			return
		}

		req.FilterByTk = append(req.FilterByTk, uint(id))
	}

	ids := req.IDs()
	if len(ids) == 0 {
		badRequest(c, fmt.Errorf("filterByTk or filter.id is required"))

		return
	}

	destroy(c, ids)
}

func destroy(c *gin.Context, ids []uint) {
	ctx := c.Request.Context()

	n, err := service.NewAttachmentService(ctx).Destroy(ctx, ids...)
	if err != nil {
		fail(c, err)

		return
	}

	ok(c, types.DestroyResponse{Deleted: n})
}

// RestoreAttachment 恢复回收站中的附件.
//
//	@Summary	恢复附件
//	@Tags		附件
//	@Produce	json
//	@Param		id	path		int	true	"附件 ID"
//	@Success	200	{object}	map[string]model.Attachment
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/attachments/{id}/restore [post]
func RestoreAttachment(c *gin.Context) {
	id, valid := paramID(c)
	if !valid {
		return
	}

	ctx := c.Request.Context()

	att, err := service.NewAttachmentService(ctx).Restore(ctx, id)
	if err != nil {
		fail(c, err)

		return
	}

	ok(c, att)
}
