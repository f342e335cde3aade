package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// QR 分享链接的二维码 PNG. 只检查粘贴是否存在，不消耗访问次数.
//
//	@Summary	分享链接二维码
//	@Tags		粘贴
//	@Produce	png
//	@Param		id		path	string	true	"粘贴 ID"
//	@Param		size	query	int		false	"边长像素"
//	@Success	200
//	@Router		/api/v1/pastes/{id}/qr [get]
func (h *PasteHandlers) QR(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.svc.Info(c.Request.Context(), id); err != nil {
		renderError(c, err)
		return
	}

	size := defaultQRSize
	if s := c.Query("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < minQRSize || n > maxQRSize {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "size must be between 64 and 1024"})
			return
		}

		size = n
	}

	png, err := qrcode.Encode(h.shareURL(c, id), qrcode.Medium, size)
	if err != nil {
		renderError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "image/png", png)
}
