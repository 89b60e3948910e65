package model

import (
	"time"

	"github.com/bytedance/sonic"
)

// Storage 存储引擎配置：文件写到哪里、以什么规则接收.
type Storage struct {
	ID       uint           `gorm:"primaryKey"                json:"id"`
	Name     string         `gorm:"size:128;uniqueIndex"      json:"name"`
	Title    string         `gorm:"size:255"                  json:"title"`
	Type     string         `gorm:"size:32;index"             json:"type"`
	BaseURL  string         `gorm:"size:1024"                 json:"baseUrl"`
	Path     string         `gorm:"size:1024"                 json:"path"`
	Rules    StorageRules   `gorm:"type:text;serializer:json" json:"rules"`
	Options  StorageOptions `gorm:"type:text;serializer:json" json:"options"`
	Default  bool           `gorm:"index"                     json:"default"`
	Paranoid bool           `json:"paranoid"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StorageRules 上传规则，零值表示不限制.
type StorageRules struct {
	// Size 最大字节数，0 不限制
	Size int64 `json:"size,omitempty"`
	// Mimetype glob 列表，例如 text/*、image/png
	Mimetype []string `json:"mimetype,omitempty"`
}

// UnmarshalJSON 兼容 mimetype 写成单个字符串（逗号分隔）的旧格式.
func (r *StorageRules) UnmarshalJSON(b []byte) error {
	var raw struct {
		Size     int64           `json:"size"`
		Mimetype sonic.NoCopyRawMessage `json:"mimetype"`
	}

	if err := sonic.Unmarshal(b, &raw); err != nil {
		return err
	}

	r.Size = raw.Size
	r.Mimetype = nil

	if len(raw.Mimetype) == 0 || string(raw.Mimetype) == "null" {
		return nil
	}

	var single string
	if err := sonic.Unmarshal(raw.Mimetype, &single); err == nil {
		r.Mimetype = splitPatterns(single)

		return nil
	}

	return sonic.Unmarshal(raw.Mimetype, &r.Mimetype)
}

// IsZero 未配置任何规则.
func (r StorageRules) IsZero() bool {
	return r.Size <= 0 && len(r.Mimetype) == 0
}

// StorageOptions 各后端自己的参数，由后端解析为强类型结构.
type StorageOptions map[string]any

// StorageTypeLocal 本地文件系统后端.
const StorageTypeLocal = "local"

// StorageTypeS3 S3 兼容对象存储后端.
const StorageTypeS3 = "s3"
