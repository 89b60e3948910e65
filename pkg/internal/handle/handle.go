// Package handle 提供 HTTP 请求处理器，负责参数绑定、调用 service 和错误到状态码的映射.
package handle

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/attachvault/pkg/internal/backend"
	"github.com/yeisme/attachvault/pkg/internal/service"
	"github.com/yeisme/attachvault/pkg/internal/upload"
	"github.com/yeisme/attachvault/pkg/log"
	"github.com/yeisme/attachvault/pkg/rule"
)

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// statusOf 把领域错误映射为 HTTP 状态码.
func statusOf(err error) int {
	var (
		ve *upload.ValidationError
		we *backend.WriteError
	)

	switch {
	case errors.As(err, &ve), service.IsConfigurationError(err):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &we):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	status := statusOf(err)

	l := log.Logger()
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	} else {
		l.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("request rejected")
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

// badRequest 参数绑定或校验失败.
func badRequest(c *gin.Context, err error) {
	l := log.Logger()
	l.Warn().Err(err).Msg("invalid request")

	if verrs := rule.Errors(err); len(verrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "fields": verrs})

		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})

		return 0, false
	}

	return uint(id), true
}
