package model

import (
	"time"

	"gorm.io/gorm"
)

// Attachment 一次上传对应的元数据记录.
type Attachment struct {
	ID        uint           `gorm:"primaryKey"                json:"id"`
	Title     string         `gorm:"size:512"                  json:"title"`
	Extname   string         `gorm:"size:64"                   json:"extname"`
	Filename  string         `gorm:"size:255;index"            json:"filename"`
	Path      string         `gorm:"size:1024"                 json:"path"`
	Size      int64          `json:"size"`
	Mimetype  string         `gorm:"size:255"                  json:"mimetype"`
	Meta      map[string]any `gorm:"type:text;serializer:json" json:"meta"`
	StorageID uint           `gorm:"index"                     json:"storageId"`

	// URL 读取时由存储引擎计算，不落库
	URL string `gorm:"-" json:"url"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index"                     json:"-"`
}

// BeforeSave meta 为空时写入 {}.
func (a *Attachment) BeforeSave(*gorm.DB) error {
	if a.Meta == nil {
		a.Meta = map[string]any{}
	}

	return nil
}

// AfterFind 保证对外的 meta 总是对象.
func (a *Attachment) AfterFind(*gorm.DB) error {
	if a.Meta == nil {
		a.Meta = map[string]any{}
	}

	return nil
}
