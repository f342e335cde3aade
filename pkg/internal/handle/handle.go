// Package handle 提供 HTTP 请求处理器，负责解析请求、调用粘贴引擎并渲染响应.
package handle

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/pastevault/pkg/configs"
	"github.com/yeisme/pastevault/pkg/internal/model"
	"github.com/yeisme/pastevault/pkg/internal/service"
	"github.com/yeisme/pastevault/pkg/internal/storage/s3"
	"github.com/yeisme/pastevault/pkg/internal/types"
	"github.com/yeisme/pastevault/pkg/rule"
)

// HeaderPassword 访问密码请求头.
const HeaderPassword = "X-Paste-Password"

// Locations 列出并解析存储位置.
type Locations interface {
	Names() []string
	Resolve(name string) (s3.Bucket, error)
}

// PasteHandlers 粘贴接口处理器.
type PasteHandlers struct {
	svc       *service.PasteService
	locations Locations
	server    configs.ServerConfig
}

// NewPasteHandlers 创建处理器. 同时确保 gin 的绑定校验使用 rule 标签.
func NewPasteHandlers(svc *service.PasteService, locations Locations, server configs.ServerConfig) *PasteHandlers {
	rule.Engine()

	return &PasteHandlers{svc: svc, locations: locations, server: server}
}

// credentials 依次从 X-Paste-Password、pwd 查询参数、Basic 认证中取密码.
func credentials(c *gin.Context) string {
	if p := c.GetHeader(HeaderPassword); p != "" {
		return p
	}

	if p := c.Query("pwd"); p != "" {
		return p
	}

	if _, p, ok := c.Request.BasicAuth(); ok {
		return p
	}

	return ""
}

// baseURL 分享链接前缀，未配置 public_base_url 时按请求推断.
func (h *PasteHandlers) baseURL(c *gin.Context) string {
	if base := h.svc.Config().PublicBaseURL; base != "" {
		return strings.TrimRight(base, "/")
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}

	if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}

	return scheme + "://" + c.Request.Host
}

// shareURL 内容读取地址.
func (h *PasteHandlers) shareURL(c *gin.Context, id string) string {
	return h.baseURL(c) + "/" + id
}

// toInfo 公开视图.
func toInfo(d *model.PasteDescriptor, url string) types.PasteInfo {
	return types.PasteInfo{
		ID:             d.UUID,
		Type:           d.PasteType.String(),
		Title:          d.Title,
		MimeType:       d.MimeType,
		Size:           d.FileSize,
		SHA256:         d.FileHash,
		HasPassword:    d.HasPassword(),
		AccessCount:    d.AccessCount,
		MaxAccessCount: d.MaxAccessCount,
		CreatedAt:      d.CreatedAt,
		ExpiredAt:      d.ExpiredAt,
		Location:       d.Location(),
		Pending:        d.IsPending(),
		URL:            url,
	}
}

// badRequest 参数错误.
func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, types.ErrorResponse{
		Error: rule.Errors(err).Error(),
		Kind:  service.KindValidationFailed.String(),
	})
}
