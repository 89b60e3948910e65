// Package model 定义持久化到数据库的实体.
package model

import "strings"

// All 返回需要自动迁移的模型.
func All() []any {
	return []any{&Storage{}, &Attachment{}, &AttachmentField{}}
}

func splitPatterns(s string) []string {
	var out []string

	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
