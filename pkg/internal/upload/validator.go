// Package upload 在写入任何字节之前校验上传文件是否满足存储引擎的规则.
package upload

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/yeisme/attachvault/pkg/internal/model"
)

// ValidationError 违反大小或类型规则，由 HTTP 层统一返回 400.
type ValidationError struct {
	// Code 413 表示超出大小，415 表示类型不匹配
	Code   int
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// FileInfo 校验需要的文件信息.
type FileInfo struct {
	Size     int64
	Mimetype string
}

// Validate 按规则检查文件，未配置规则时直接通过.
func Validate(info FileInfo, rules model.StorageRules) error {
	if rules.Size > 0 && info.Size > rules.Size {
		return &ValidationError{
			Code:   http.StatusRequestEntityTooLarge,
			Reason: fmt.Sprintf("file size exceeded: %d > %d bytes", info.Size, rules.Size),
		}
	}

	if len(rules.Mimetype) > 0 && !MatchMimetype(info.Mimetype, rules.Mimetype) {
		return &ValidationError{
			Code:   http.StatusUnsupportedMediaType,
			Reason: fmt.Sprintf("file mimetype mismatch: %q not in %v", info.Mimetype, rules.Mimetype),
		}
	}

	return nil
}

// MatchMimetype 判断 mimetype 是否匹配任一 glob 模式.
// 比较前忽略大小写和参数（"; charset=utf-8"），"*" 与 "*/*" 匹配任意类型.
func MatchMimetype(mimetype string, patterns []string) bool {
	mt := normalize(mimetype)
	if mt == "" {
		return false
	}

	for _, p := range patterns {
		p = normalize(p)

		switch p {
		case "":
			continue
		case "*", "*/*":
			return true
		}

		if ok, err := path.Match(p, mt); err == nil && ok {
			return true
		}
	}

	return false
}

func normalize(mt string) string {
	mt, _, _ = strings.Cut(mt, ";")

	return strings.ToLower(strings.TrimSpace(mt))
}
