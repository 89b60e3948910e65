package types

import "github.com/yeisme/attachvault/pkg/internal/model"

// CreateStorageRequest 创建存储引擎请求.
type CreateStorageRequest struct {
	// Name 为空时自动生成
	Name     string               `json:"name"     rule:"omitempty,slug,max=128"`
	Title    string               `json:"title"    rule:"max=255"`
	Type     string               `json:"type"     rule:"required"`
	BaseURL  string               `json:"baseUrl"`
	Path     string               `json:"path"`
	Rules    model.StorageRules   `json:"rules"`
	Options  model.StorageOptions `json:"options"`
	Default  bool                 `json:"default"`
	Paranoid bool                 `json:"paranoid"`
}

// UpdateStorageRequest 更新存储引擎，只修改非空字段.
type UpdateStorageRequest struct {
	Title    *string               `json:"title"    rule:"omitempty,max=255"`
	BaseURL  *string               `json:"baseUrl"`
	Path     *string               `json:"path"`
	Rules    *model.StorageRules   `json:"rules"`
	Options  *model.StorageOptions `json:"options"`
	Default  *bool                 `json:"default"`
	Paranoid *bool                 `json:"paranoid"`
}
