package types

// CreateFieldRequest 声明一个引用附件的字段及其存储引擎.
type CreateFieldRequest struct {
	Collection string `json:"collection" rule:"required,slug,max=128"`
	Name       string `json:"name"       rule:"required,slug,max=128"`
	// Storage 为空时使用默认引擎
	Storage string `json:"storage" rule:"omitempty,slug,max=128"`
}
