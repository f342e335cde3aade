package handle

import (
	"cmp"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/pastevault/pkg/internal/types"
)

// Stats 返回描述符索引的统计. 遍历全部描述符，仅供管理端使用.
func (h *PasteHandlers) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}

	out := types.PasteStats{
		Total:     st.Total(),
		Bytes:     st.Bytes,
		Protected: st.Protected,
		Skipped:   st.Skipped,
		ByType:    make([]types.PasteStatsRow, 0, len(st.Counts)),
	}

	for k, n := range st.Counts {
		out.ByType = append(out.ByType, types.PasteStatsRow{Type: k.Type, State: k.State, Count: n})
	}

	slices.SortFunc(out.ByType, func(a, b types.PasteStatsRow) int {
		return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.State, b.State))
	})

	c.JSON(http.StatusOK, out)
}
