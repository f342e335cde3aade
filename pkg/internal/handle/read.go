package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/pastevault/pkg/internal/model"
	"github.com/yeisme/pastevault/pkg/internal/service"
)

const defaultContentType = "application/octet-stream"

// Read 读取内容：代理字节流、302 到预签名 GET，或 301 到链接目标.
// 路径中的可选文件名覆盖下载文件名，download 查询参数改为附件下载.
//
//	@Summary	读取粘贴
//	@Tags		读取
//	@Param		id	path	string	true	"粘贴 ID"
//	@Param		pwd	query	string	false	"访问密码"
//	@Success	200
//	@Success	301
//	@Success	302
//	@Failure	410	{object}	types.ErrorResponse
//	@Router		/{id} [get]
func (h *PasteHandlers) Read(c *gin.Context) {
	id := c.Param("id")
	if !h.svc.ValidID(id) {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	res, err := h.svc.ReadAccess(c.Request.Context(), id, credentials(c))
	if err != nil {
		renderError(c, err)
		return
	}

	// 每次读取都要经过计数
	c.Header("Cache-Control", "no-store")

	switch res.Kind {
	case service.ReadLink:
		c.Redirect(http.StatusMovedPermanently, res.RedirectURL)
	case service.ReadPresigned:
		c.Redirect(http.StatusFound, res.RedirectURL)
	default:
		defer res.Body.Close()

		d := res.Descriptor

		size := res.Object.Size
		if size <= 0 {
			size = -1
		}

		c.DataFromReader(http.StatusOK, size, contentType(d, res.Object.ContentType), res.Body, disposition(c, d))
	}
}

// contentType 描述符中的 MIME 优先，其次为对象存储记录的类型.
func contentType(d *model.PasteDescriptor, stored string) string {
	switch {
	case d.MimeType != "":
		return d.MimeType
	case stored != "" && stored != defaultContentType:
		return stored
	case d.PasteType == model.PasteTypePaste:
		return "text/plain; charset=utf-8"
	default:
		return defaultContentType
	}
}

func disposition(c *gin.Context, d *model.PasteDescriptor) map[string]string {
	name := c.Param("filename")
	if name == "" {
		name = d.Title
	}

	kind := "inline"
	if _, ok := c.GetQuery("download"); ok {
		kind = "attachment"
	}

	if name == "" {
		if kind == "inline" {
			return nil
		}

		name = d.UUID
	}

	return map[string]string{"Content-Disposition": service.ContentDisposition(kind, name)}
}
