// Package s3 管理命名的 S3 兼容存储位置.
//
// 每个位置对应一个 bucket，按用途持有最多三个 minio 客户端：数据读写使用 Endpoint，
// 预签名 PUT 使用 UploadEndpoint，预签名 GET 使用 DownloadEndpoint，后两者为空时回退到 Endpoint.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sony/gobreaker"

	"github.com/yeisme/pastevault/pkg/configs"
	nlog "github.com/yeisme/pastevault/pkg/log"
	"github.com/yeisme/pastevault/pkg/metrics"
)

var (
	// ErrObjectNotFound 对象不存在.
	ErrObjectNotFound = errors.New("s3: object not found")
	// ErrUnknownLocation 位置未配置.
	ErrUnknownLocation = errors.New("s3: unknown storage location")
	// ErrLocationUnavailable 位置熔断打开，暂时不可用.
	ErrLocationUnavailable = errors.New("s3: storage location unavailable")
)

// ObjectInfo 对象元数据.
type ObjectInfo struct {
	Key            string
	Size           int64
	ContentType    string
	ETag           string
	ChecksumSHA256 string
}

// Bucket 一个存储位置可执行的操作.
type Bucket interface {
	// Name 位置名称.
	Name() string
	// Profile 位置配置.
	Profile() configs.LocationConfig
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (ObjectInfo, error)
	// Get 返回对象内容，调用方负责关闭.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Remove 删除对象，对象不存在不视为错误.
	Remove(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration, params url.Values) (*url.URL, error)
	// PresignPut 生成上传 URL，返回客户端必须原样携带的请求头.
	PresignPut(ctx context.Context, key string, expiry time.Duration, size int64, sha256 []byte) (*url.URL, http.Header, error)
	// HealthCheck 检查 bucket 是否可访问.
	HealthCheck(ctx context.Context) error
}

// Location 基于 minio 的 Bucket 实现.
type Location struct {
	name     string
	cfg      configs.LocationConfig
	data     *minio.Client
	upload   *minio.Client
	download *minio.Client
	breaker  *gobreaker.CircuitBreaker
}

var _ Bucket = (*Location)(nil)

// NewLocation 创建位置客户端，不进行网络访问.
func NewLocation(name string, cfg configs.LocationConfig, cb configs.CircuitBreakerConfig) (*Location, error) {
	if cfg.Region == "" {
		cfg.Region = configs.DefaultS3Region
	}

	data, err := newClient(cfg.Endpoint, &cfg)
	if err != nil {
		return nil, fmt.Errorf("location %s: %w", name, err)
	}

	l := &Location{name: name, cfg: cfg, data: data, upload: data, download: data}

	if cfg.UploadEndpoint != "" {
		if l.upload, err = newClient(cfg.UploadEndpoint, &cfg); err != nil {
			return nil, fmt.Errorf("location %s upload endpoint: %w", name, err)
		}
	}

	if cfg.DownloadEndpoint != "" {
		if l.download, err = newClient(cfg.DownloadEndpoint, &cfg); err != nil {
			return nil, fmt.Errorf("location %s download endpoint: %w", name, err)
		}
	}

	if cb.ObjectStore {
		l.breaker = newBreaker("s3-"+name, cb)
	}

	return l, nil
}

// newClient 允许 endpoint 带 http:// 或 https:// 前缀，https 强制开启 TLS.
func newClient(endpoint string, cfg *configs.LocationConfig) (*minio.Client, error) {
	secure := cfg.UseSSL

	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		secure = secure || u.Scheme == "https"
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("pastevault", configs.AppVersion)

	return cli, nil
}

func newBreaker(name string, cfg configs.CircuitBreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "s3:" + name,
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    cfg.Interval(),
		Timeout:     cfg.Timeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.ShouldTrip(counts.Requests, counts.TotalFailures)
		},
		// 对象不存在是正常结果，不计入失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrObjectNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			nlog.Logger().Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("object store breaker state changed")
		},
	})
}

// guard 在熔断器内执行 fn.
func guard[T any](l *Location, fn func() (T, error)) (T, error) {
	if l.breaker == nil {
		return fn()
	}

	out, err := l.breaker.Execute(func() (any, error) { return fn() })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrLocationUnavailable, l.name)
	}

	if out == nil {
		var zero T
		return zero, err
	}

	return out.(T), err
}

// Name 位置名称.
func (l *Location) Name() string { return l.name }

// Profile 位置配置.
func (l *Location) Profile() configs.LocationConfig { return l.cfg }

// Put 上传对象.
func (l *Location) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (ObjectInfo, error) {
	return guard(l, func() (ObjectInfo, error) {
		info, err := l.data.PutObject(ctx, l.cfg.Bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
		if err != nil {
			return ObjectInfo{}, fmt.Errorf("put object %s/%s: %w", l.name, key, err)
		}

		return ObjectInfo{Key: key, Size: info.Size, ContentType: contentType, ETag: info.ETag}, nil
	})
}

// Get 读取对象.
func (l *Location) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := guard(l, func() (*minio.Object, error) {
		obj, err := l.data.GetObject(ctx, l.cfg.Bucket, key, minio.GetObjectOptions{})
		if err != nil {
			return nil, translate(err, l.name, key)
		}

		return obj, nil
	})
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	// GetObject 是惰性的，Stat 触发请求并暴露 NoSuchKey
	st, err := guard(l, func() (minio.ObjectInfo, error) {
		st, err := obj.Stat()
		if err != nil {
			return st, translate(err, l.name, key)
		}

		return st, nil
	})
	if err != nil {
		_ = obj.Close()
		return nil, ObjectInfo{}, err
	}

	return obj, toInfo(st), nil
}

// Stat 读取对象元数据.
func (l *Location) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	return guard(l, func() (ObjectInfo, error) {
		st, err := l.data.StatObject(ctx, l.cfg.Bucket, key, minio.StatObjectOptions{Checksum: true})
		if err != nil {
			return ObjectInfo{}, translate(err, l.name, key)
		}

		return toInfo(st), nil
	})
}

// Remove 删除对象.
func (l *Location) Remove(ctx context.Context, key string) error {
	_, err := guard(l, func() (struct{}, error) {
		err := l.data.RemoveObject(ctx, l.cfg.Bucket, key, minio.RemoveObjectOptions{})
		if err = translate(err, l.name, key); err != nil && !errors.Is(err, ErrObjectNotFound) {
			return struct{}{}, err
		}

		return struct{}{}, nil
	})

	return err
}

// PresignGet 生成下载 URL，params 可携带 response-content-type 等覆盖参数.
func (l *Location) PresignGet(ctx context.Context, key string, expiry time.Duration, params url.Values) (*url.URL, error) {
	u, err := l.download.PresignedGetObject(ctx, l.cfg.Bucket, key, expiry, params)
	if err != nil {
		return nil, fmt.Errorf("presign get %s/%s: %w", l.name, key, err)
	}

	return u, nil
}

// PresignPut 生成上传 URL，长度和 sha256 校验和作为签名头，上传内容不一致时存储端拒绝.
func (l *Location) PresignPut(ctx context.Context, key string, expiry time.Duration, size int64, sha256 []byte) (*url.URL, http.Header, error) {
	headers := UploadHeaders(size, sha256)

	u, err := l.upload.PresignHeader(ctx, http.MethodPut, l.cfg.Bucket, key, expiry, url.Values{}, headers)
	if err != nil {
		return nil, nil, fmt.Errorf("presign put %s/%s: %w", l.name, key, err)
	}

	return u, headers, nil
}

// HealthCheck 检查 bucket 是否存在.
func (l *Location) HealthCheck(ctx context.Context) error {
	_, err := guard(l, func() (struct{}, error) {
		ok, err := l.data.BucketExists(ctx, l.cfg.Bucket)
		if err != nil {
			return struct{}{}, fmt.Errorf("check bucket %s: %w", l.cfg.Bucket, err)
		}

		if !ok {
			return struct{}{}, fmt.Errorf("bucket %s does not exist", l.cfg.Bucket)
		}

		return struct{}{}, nil
	})

	return err
}

// EnsureBucket 在 CreateBucket 开启且 bucket 不存在时创建.
func (l *Location) EnsureBucket(ctx context.Context) error {
	if !l.cfg.CreateBucket {
		return nil
	}

	exists, err := l.data.BucketExists(ctx, l.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", l.cfg.Bucket, err)
	}

	if exists {
		return nil
	}

	if err := l.data.MakeBucket(ctx, l.cfg.Bucket, minio.MakeBucketOptions{Region: l.cfg.Region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", l.cfg.Bucket, err)
	}

	nlog.Logger().Info().Str("location", l.name).Str("bucket", l.cfg.Bucket).Msg("bucket created")

	return nil
}

// BreakerState 返回熔断器状态，未启用时为 closed.
func (l *Location) BreakerState() gobreaker.State {
	if l.breaker == nil {
		return gobreaker.StateClosed
	}

	return l.breaker.State()
}

func translate(err error, location, key string) error {
	if err == nil {
		return nil
	}

	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s/%s", ErrObjectNotFound, location, key)
	}

	return fmt.Errorf("object %s/%s: %w", location, key, err)
}

func toInfo(st minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Key:            st.Key,
		Size:           st.Size,
		ContentType:    st.ContentType,
		ETag:           st.ETag,
		ChecksumSHA256: st.ChecksumSHA256,
	}
}
