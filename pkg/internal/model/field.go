package model

import "time"

// AttachmentField 宿主实体上引用附件的字段，例如 customers.avatar，声明由哪个存储引擎管理.
type AttachmentField struct {
	ID         uint   `gorm:"primaryKey"                               json:"id"`
	Collection string `gorm:"size:128;uniqueIndex:idx_field_collection" json:"collection"`
	Name       string `gorm:"size:128;uniqueIndex:idx_field_collection" json:"name"`
	// Storage 存储引擎名称，为空时使用默认引擎
	Storage string `gorm:"size:128" json:"storage"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Key 返回 collection.name 形式的字段标识.
func (f *AttachmentField) Key() string {
	return f.Collection + "." + f.Name
}
