package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/pastevault/pkg/context"
	"github.com/yeisme/pastevault/pkg/internal/service"
	"github.com/yeisme/pastevault/pkg/internal/types"
)

// statusOf 引擎错误类别到 HTTP 状态码. 存储或 KV 故障归入 500，细节只写日志.
func statusOf(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}

	switch {
	case errors.Is(err, service.ErrAccessExhausted):
		return http.StatusGone
	case errors.Is(err, service.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	}

	switch service.KindOf(err) {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindPreconditionFailed:
		return http.StatusConflict
	case service.KindLimitExceeded:
		return http.StatusTooManyRequests
	case service.KindValidationFailed:
		return http.StatusBadRequest
	case service.KindConfigurationError:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// renderError 写出错误响应. 401 附带 Basic 认证质询，便于浏览器弹出密码框.
func renderError(c *gin.Context, err error) {
	status := statusOf(err)
	resp := types.ErrorResponse{Error: http.StatusText(status)}

	var se *service.Error
	if errors.As(err, &se) {
		resp.Error = se.Public()
		resp.Kind = se.Kind.String()
	} else if status == http.StatusRequestEntityTooLarge {
		resp.Error = "request body too large"
	}

	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Basic realm="pastevault"`)
	}

	if status >= http.StatusInternalServerError {
		ctxPkg.Logger(c.Request.Context()).Error().Err(err).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}
