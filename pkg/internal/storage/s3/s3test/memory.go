// Package s3test 提供内存实现的 Bucket，用于测试.
package s3test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/yeisme/pastevault/pkg/configs"
	"github.com/yeisme/pastevault/pkg/internal/storage/s3"
)

type object struct {
	data        []byte
	contentType string
}

// Bucket 内存 Bucket. Fail 非空时所有数据操作返回该错误.
type Bucket struct {
	name    string
	profile configs.LocationConfig

	mu      sync.Mutex
	objects map[string]object
	presign int

	Fail error
}

var _ s3.Bucket = (*Bucket)(nil)

// New 创建内存 Bucket.
func New(name string, profile configs.LocationConfig) *Bucket {
	if profile.Bucket == "" {
		profile.Bucket = name
	}

	return &Bucket{name: name, profile: profile, objects: make(map[string]object)}
}

// Name 位置名称.
func (b *Bucket) Name() string { return b.name }

// Profile 位置配置.
func (b *Bucket) Profile() configs.LocationConfig { return b.profile }

// Put 保存对象.
func (b *Bucket) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (s3.ObjectInfo, error) {
	if b.Fail != nil {
		return s3.ObjectInfo{}, b.Fail
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return s3.ObjectInfo{}, err
	}

	b.mu.Lock()
	b.objects[key] = object{data: data, contentType: contentType}
	b.mu.Unlock()

	return b.info(key, data, contentType), nil
}

// Get 读取对象.
func (b *Bucket) Get(_ context.Context, key string) (io.ReadCloser, s3.ObjectInfo, error) {
	if b.Fail != nil {
		return nil, s3.ObjectInfo{}, b.Fail
	}

	b.mu.Lock()
	o, ok := b.objects[key]
	b.mu.Unlock()

	if !ok {
		return nil, s3.ObjectInfo{}, fmt.Errorf("%w: %s", s3.ErrObjectNotFound, key)
	}

	return io.NopCloser(bytes.NewReader(o.data)), b.info(key, o.data, o.contentType), nil
}

// Stat 读取元数据.
func (b *Bucket) Stat(_ context.Context, key string) (s3.ObjectInfo, error) {
	if b.Fail != nil {
		return s3.ObjectInfo{}, b.Fail
	}

	b.mu.Lock()
	o, ok := b.objects[key]
	b.mu.Unlock()

	if !ok {
		return s3.ObjectInfo{}, fmt.Errorf("%w: %s", s3.ErrObjectNotFound, key)
	}

	return b.info(key, o.data, o.contentType), nil
}

// Remove 删除对象.
func (b *Bucket) Remove(_ context.Context, key string) error {
	if b.Fail != nil {
		return b.Fail
	}

	b.mu.Lock()
	delete(b.objects, key)
	b.mu.Unlock()

	return nil
}

// PresignGet 返回可预测的伪 URL，并记录调用次数.
func (b *Bucket) PresignGet(_ context.Context, key string, expiry time.Duration, params url.Values) (*url.URL, error) {
	b.mu.Lock()
	b.presign++
	n := b.presign
	b.mu.Unlock()

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}

	q.Set("X-Amz-Expires", fmt.Sprintf("%d", int64(expiry/time.Second)))
	q.Set("n", fmt.Sprintf("%d", n))

	return &url.URL{Scheme: "https", Host: b.name + ".s3.test", Path: "/" + b.profile.Bucket + "/" + key, RawQuery: q.Encode()}, nil
}

// PresignPut 返回伪上传 URL.
func (b *Bucket) PresignPut(_ context.Context, key string, expiry time.Duration, size int64, sha []byte) (*url.URL, http.Header, error) {
	q := url.Values{}
	q.Set("X-Amz-Expires", fmt.Sprintf("%d", int64(expiry/time.Second)))

	return &url.URL{Scheme: "https", Host: b.name + ".s3.test", Path: "/" + b.profile.Bucket + "/" + key, RawQuery: q.Encode()},
		s3.UploadHeaders(size, sha), nil
}

// HealthCheck 返回 Fail.
func (b *Bucket) HealthCheck(context.Context) error {
	return b.Fail
}

// PresignCount 预签名 GET 调用次数.
func (b *Bucket) PresignCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.presign
}

// Has 对象是否存在.
func (b *Bucket) Has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.objects[key]

	return ok
}

// Upload 模拟客户端通过预签名 URL 上传.
func (b *Bucket) Upload(key string, data []byte, contentType string) {
	b.mu.Lock()
	b.objects[key] = object{data: append([]byte(nil), data...), contentType: contentType}
	b.mu.Unlock()
}

func (b *Bucket) info(key string, data []byte, contentType string) s3.ObjectInfo {
	sum := sha256.Sum256(data)

	return s3.ObjectInfo{
		Key:            key,
		Size:           int64(len(data)),
		ContentType:    contentType,
		ChecksumSHA256: base64.StdEncoding.EncodeToString(sum[:]),
	}
}
