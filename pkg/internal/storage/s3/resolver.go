package s3

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/yeisme/pastevault/pkg/configs"
	nlog "github.com/yeisme/pastevault/pkg/log"
)

// HeaderChecksumSHA256 预签名上传时签入的校验和头.
const HeaderChecksumSHA256 = "X-Amz-Checksum-Sha256"

// UploadHeaders 构造预签名 PUT 需要客户端携带的请求头.
func UploadHeaders(size int64, sha256 []byte) http.Header {
	h := http.Header{}
	h.Set("Content-Length", strconv.FormatInt(size, 10))

	if len(sha256) > 0 {
		h.Set(HeaderChecksumSHA256, base64.StdEncoding.EncodeToString(sha256))
	}

	return h
}

// Resolver 按名称查找存储位置.
type Resolver struct {
	buckets map[string]Bucket
}

// NewResolver 为配置中的每个位置创建客户端.
func NewResolver(cfg configs.StorageConfig, cb configs.CircuitBreakerConfig) (*Resolver, error) {
	r := &Resolver{buckets: make(map[string]Bucket, len(cfg.Locations))}

	for _, name := range cfg.Names() {
		loc, err := NewLocation(name, cfg.Locations[name], cb)
		if err != nil {
			return nil, err
		}

		r.buckets[name] = loc
	}

	return r, nil
}

// NewStaticResolver 使用给定的 Bucket 集合.
func NewStaticResolver(buckets ...Bucket) *Resolver {
	r := &Resolver{buckets: make(map[string]Bucket, len(buckets))}
	for _, b := range buckets {
		r.buckets[b.Name()] = b
	}

	return r
}

// Resolve 查找位置，空名称视为 default.
func (r *Resolver) Resolve(name string) (Bucket, error) {
	if name == "" {
		name = configs.LocationDefault
	}

	b, ok := r.buckets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocation, name)
	}

	return b, nil
}

// Names 返回排序后的位置名称.
func (r *Resolver) Names() []string {
	names := make([]string, 0, len(r.buckets))
	for name := range r.buckets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// EnsureBuckets 为需要的位置创建 bucket.
func (r *Resolver) EnsureBuckets(ctx context.Context) error {
	for _, name := range r.Names() {
		loc, ok := r.buckets[name].(*Location)
		if !ok {
			continue
		}

		if err := loc.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("location %s: %w", name, err)
		}
	}

	nlog.Logger().Info().Strs("locations", r.Names()).Msg("s3 locations ready")

	return nil
}

// HealthCheck 逐个检查位置，返回每个位置的错误.
func (r *Resolver) HealthCheck(ctx context.Context) map[string]error {
	out := make(map[string]error, len(r.buckets))
	for name, b := range r.buckets {
		out[name] = b.HealthCheck(ctx)
	}

	return out
}

// Close 接口兼容，minio 客户端无需关闭.
func (r *Resolver) Close() error {
	return nil
}
