package service

import (
	"errors"
	"fmt"

	"github.com/yeisme/attachvault/pkg/internal/repository"
)

// ErrNotFound 记录不存在.
var ErrNotFound = repository.ErrNotFound

// ConfigurationError 无法解析出可用的存储引擎，或存储引擎配置不合法.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "storage configuration: " + e.Reason
}

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// IsConfigurationError 判断是否为配置错误.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError

	return errors.As(err, &ce)
}
