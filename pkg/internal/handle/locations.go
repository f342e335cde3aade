package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/pastevault/pkg/internal/types"
)

// ListLocations 公开各存储位置的大小与保留期限制，不包含端点与凭据.
//
//	@Summary	存储位置限制
//	@Tags		存储位置
//	@Produce	json
//	@Success	200	{array}	types.LocationInfo
//	@Router		/api/v1/locations [get]
func (h *PasteHandlers) ListLocations(c *gin.Context) {
	names := h.locations.Names()
	out := make([]types.LocationInfo, 0, len(names))

	for _, name := range names {
		b, err := h.locations.Resolve(name)
		if err != nil {
			continue
		}

		p := b.Profile()
		out = append(out, types.LocationInfo{
			Name:        name,
			MaxFileSize: p.MaxFileSize,
			MaxTTL:      int64(p.MaxTTL.Seconds()),
		})
	}

	c.JSON(http.StatusOK, gin.H{"locations": out})
}
