package middleware

import (
	"bytes"
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/pastevault/pkg/cache"
)

const (
	defaultCacheTTL     = 30 * time.Second
	defaultCacheMaxBody = 1 << 20

	headerCacheStatus = "X-Cache"
)

// storedHeaders 随缓存条目保存的响应头，其余（例如 X-Request-ID）每次由当前请求生成.
var storedHeaders = []string{"Content-Type", "Content-Disposition", "Cache-Control"}

// CacheOption 配置 ResponseCache.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	ttl     time.Duration
	vary    []string
	maxBody int
}

// CacheTTL 条目有效期，默认 30s. 响应的 Cache-Control max-age 更短时以其为准.
func CacheTTL(d time.Duration) CacheOption {
	return func(o *cacheOptions) { o.ttl = d }
}

// CacheVary 参与缓存键的请求头.
func CacheVary(headers ...string) CacheOption {
	return func(o *cacheOptions) { o.vary = append(o.vary, headers...) }
}

// CacheMaxBody 可缓存的最大响应体，超过时不缓存.
func CacheMaxBody(n int) CacheOption {
	return func(o *cacheOptions) { o.maxBody = n }
}

// cacheEntry 序列化到 KV 的响应.
type cacheEntry struct {
	Header   map[string]string `json:"h,omitempty"`
	Body     []byte            `json:"b,omitempty"`
	ETag     string            `json:"e"`
	StoredAt int64             `json:"t"`
}

// ResponseCache 缓存公开的 GET 响应（二维码、位置列表），条目保存在 c 对应的 KV 命名空间.
// 只缓存 200 且未声明 no-store/private 的响应；带访问密码的请求不经过缓存.
// 命中时支持 If-None-Match 返回 304，并通过 X-Cache 标记 HIT/MISS.
//
//	c := cache.NewCache(kvStore, "http.")
//	r.GET("/locations", middleware.ResponseCache(c, middleware.CacheTTL(time.Minute)), h.ListLocations)
//
// KV 读写失败时直接执行处理器.
func ResponseCache(c *appcache.Cache, opts ...CacheOption) gin.HandlerFunc {
	if c == nil {
		panic("ResponseCache: cache cannot be nil")
	}

	o := cacheOptions{ttl: defaultCacheTTL, maxBody: defaultCacheMaxBody}
	for _, fn := range opts {
		fn(&o)
	}

	o.vary = append([]string(nil), o.vary...)
	sort.Strings(o.vary)

	return func(ctx *gin.Context) {
		if !cacheable(ctx) {
			ctx.Next()
			return
		}

		key := responseKey(ctx, o.vary)

		if entry, err := appcache.Get[cacheEntry](ctx.Request.Context(), c, key); err == nil {
			replay(ctx, entry)
			return
		}

		w := &captureWriter{ResponseWriter: ctx.Writer, max: o.maxBody}
		w.Header().Set(headerCacheStatus, "MISS")
		ctx.Writer = w
		ctx.Next()

		ttl, ok := storeTTL(ctx, w, o.ttl)
		if !ok {
			return
		}

		entry := cacheEntry{
			Header:   make(map[string]string, len(storedHeaders)),
			Body:     w.buf.Bytes(),
			ETag:     `"` + strconv.FormatUint(xxhash.Sum64(w.buf.Bytes()), 16) + `"`,
			StoredAt: time.Now().UnixNano(),
		}

		for _, h := range storedHeaders {
			if v := w.Header().Get(h); v != "" {
				entry.Header[h] = v
			}
		}

		go func(bg context.Context) {
			_ = appcache.Set(bg, c, key, entry, ttl)
		}(context.WithoutCancel(ctx.Request.Context()))
	}
}

// cacheable 只处理无凭据的 GET/HEAD，客户端可用 Cache-Control: no-cache 绕过.
func cacheable(c *gin.Context) bool {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		return false
	}

	if c.GetHeader("Authorization") != "" || c.GetHeader("X-Paste-Password") != "" || c.Query("pwd") != "" {
		return false
	}

	return !strings.Contains(strings.ToLower(c.GetHeader("Cache-Control")), "no-cache")
}

// responseKey HEAD 与 GET 共用条目. 使用实际路径而不是路由模板.
func responseKey(c *gin.Context, vary []string) string {
	var b strings.Builder

	b.WriteString(c.Request.Host)
	b.WriteString(c.Request.URL.Path)
	b.WriteByte('?')
	b.WriteString(c.Request.URL.Query().Encode())

	for _, h := range vary {
		b.WriteByte('|')
		b.WriteString(h)
		b.WriteByte('=')
		b.WriteString(c.GetHeader(h))
	}

	return "rc:" + strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

func replay(c *gin.Context, e cacheEntry) {
	h := c.Writer.Header()
	for k, v := range e.Header {
		h.Set(k, v)
	}

	h.Set("ETag", e.ETag)
	h.Set("Age", strconv.FormatInt(int64(time.Since(time.Unix(0, e.StoredAt)).Seconds()), 10))
	h.Set(headerCacheStatus, "HIT")

	if match := c.GetHeader("If-None-Match"); match != "" && match == e.ETag {
		c.AbortWithStatus(http.StatusNotModified)
		return
	}

	c.Status(http.StatusOK)

	if c.Request.Method != http.MethodHead {
		_, _ = c.Writer.Write(e.Body)
	}

	c.Abort()
}

// storeTTL 判断响应能否缓存，并返回有效期.
func storeTTL(c *gin.Context, w *captureWriter, ttl time.Duration) (time.Duration, bool) {
	if c.Request.Method != http.MethodGet || w.Status() != http.StatusOK || w.overflow {
		return 0, false
	}

	cc := strings.ToLower(w.Header().Get("Cache-Control"))
	if strings.Contains(cc, "no-store") || strings.Contains(cc, "private") {
		return 0, false
	}

	if _, v, ok := strings.Cut(cc, "max-age="); ok {
		v, _, _ = strings.Cut(v, ",")
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			if maxAge := time.Duration(n) * time.Second; maxAge < ttl {
				ttl = maxAge
			}
		}
	}

	return ttl, ttl > 0
}

// captureWriter 在写出响应的同时保留一份副本，超过 max 后放弃副本.
type captureWriter struct {
	gin.ResponseWriter

	buf      bytes.Buffer
	max      int
	overflow bool
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.max > 0 && w.buf.Len()+len(b) > w.max {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}

	return w.ResponseWriter.Write(b)
}
