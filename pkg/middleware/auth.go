package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/pastevault/pkg/configs"
)

// HeaderAdminToken 管理接口令牌头.
const HeaderAdminToken = "X-Admin-Token"

// AdminTokenMiddleware 校验 X-Admin-Token. 管理接口未开启时一律返回 404.
func AdminTokenMiddleware(conf configs.AdminConfig) gin.HandlerFunc {
	token := []byte(conf.Token)

	return func(c *gin.Context) {
		if !conf.Enabled || len(token) == 0 {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		got := []byte(c.GetHeader(HeaderAdminToken))
		if subtle.ConstantTimeCompare(got, token) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Next()
	}
}
