// Package middleware 提供 gin 中间件：请求 ID、日志、追踪、指标、限流、熔断、响应缓存与管理接口鉴权.
package middleware

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid"

	ctxPkg "github.com/yeisme/pastevault/pkg/context"
)

// HeaderRequestID 请求 ID 头.
const HeaderRequestID = "X-Request-ID"

// requestIDMaxLen 客户端传入的请求 ID 超过该长度时重新生成.
const requestIDMaxLen = 128

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newRequestID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// RequestIDMiddleware 沿用客户端的 X-Request-ID，缺失时生成 ULID，并写入响应头与请求上下文.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > requestIDMaxLen {
			id = newRequestID()
		}

		c.Header(HeaderRequestID, id)
		c.Set(HeaderRequestID, id)
		c.Request = c.Request.WithContext(ctxPkg.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
