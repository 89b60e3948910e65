// Package types 定义 HTTP 层的请求与响应结构.
package types

import "github.com/yeisme/attachvault/pkg/internal/model"

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// ListRequest 分页参数.
type ListRequest struct {
	Page     int `form:"page"     rule:"omitempty,min=1"`
	PageSize int `form:"pageSize" rule:"omitempty,min=1,max=200"`
}

// Normalize 填充默认分页.
func (r *ListRequest) Normalize() {
	if r.Page <= 0 {
		r.Page = 1
	}

	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}

	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
}

// ListMeta 列表分页信息.
type ListMeta struct {
	Count     int64 `json:"count"`
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	TotalPage int64 `json:"totalPage"`
}

// NewListMeta 计算总页数.
func NewListMeta(count int64, page, pageSize int) ListMeta {
	meta := ListMeta{Count: count, Page: page, PageSize: pageSize}
	if pageSize > 0 {
		meta.TotalPage = (count + int64(pageSize) - 1) / int64(pageSize)
	}

	return meta
}

// AttachmentListResponse 附件列表.
type AttachmentListResponse struct {
	Data []model.Attachment `json:"data"`
	Meta ListMeta           `json:"meta"`
}

// DestroyAttachmentsRequest 批量删除，filter.id 为主键列表.
type DestroyAttachmentsRequest struct {
	FilterByTk []uint `json:"filterByTk"`
	Filter     struct {
		ID []uint `json:"id"`
	} `json:"filter"`
}

// IDs 合并 filterByTk 和 filter.id.
func (r *DestroyAttachmentsRequest) IDs() []uint {
	ids := make([]uint, 0, len(r.FilterByTk)+len(r.Filter.ID))
	ids = append(ids, r.FilterByTk...)

	return append(ids, r.Filter.ID...)
}

// DestroyResponse 删除结果.
type DestroyResponse struct {
	Deleted int `json:"deleted"`
}
