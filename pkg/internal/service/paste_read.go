package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/yeisme/pastevault/pkg/internal/model"
	"github.com/yeisme/pastevault/pkg/internal/storage/s3"
	"github.com/yeisme/pastevault/pkg/metrics"
	"github.com/yeisme/pastevault/pkg/queue"
)

// maxLinkSize 链接内容的读取上限.
const maxLinkSize = 8 << 10

// ReadKind 内容的交付方式.
type ReadKind int

const (
	// ReadContent 通过服务代理字节流.
	ReadContent ReadKind = iota
	// ReadPresigned 重定向到预签名 GET.
	ReadPresigned
	// ReadLink 重定向到链接内容中的 URL.
	ReadLink
)

// ReadResult ReadAccess 的结果. ReadContent 时调用方负责关闭 Body.
type ReadResult struct {
	Kind ReadKind
	// Descriptor 计数递增后的快照
	Descriptor *model.PasteDescriptor
	Body       io.ReadCloser
	Object     s3.ObjectInfo
	// RedirectURL ReadPresigned 与 ReadLink 使用
	RedirectURL string
}

// ReadAccess 读取内容. 依次检查：存在、密码、访问次数、上传是否完成.
// 全部通过后访问计数加一并在后台持久化；过期的描述符和对象缺失的描述符会被清理.
func (s *PasteService) ReadAccess(ctx context.Context, id, password string) (res *ReadResult, err error) {
	const op = "read"

	ctx, done := observe(ctx, op, id)
	defer func() { done(err) }()

	d, err := s.loadActive(ctx, op, id)
	if err != nil {
		return nil, err
	}

	if err = s.checkPassword(op, d.PasswordFingerprint, password); err != nil {
		return nil, err
	}

	if d.IsExhausted() {
		return nil, exhausted(op)
	}

	if d.IsPending() {
		return nil, precondition(op, "upload not finalized")
	}

	bucket, err := s.bucketFor(op, d.Location())
	if err != nil {
		return nil, err
	}

	next := d.Clone()
	res = &ReadResult{}

	if d.PasteType == model.PasteTypeLargePaste && s.cfg.LargeProxyThreshold > 0 && d.FileSize >= s.cfg.LargeProxyThreshold {
		info, statErr := bucket.Stat(ctx, d.ObjectKey())
		if statErr != nil {
			return nil, s.objectError(ctx, op, d, statErr)
		}

		u, _, presignErr := s.presignedURL(ctx, next, bucket)
		if presignErr != nil {
			return nil, upstream(op, presignErr)
		}

		res.Kind = ReadPresigned
		res.Object = info
		res.RedirectURL = u
	} else {
		body, info, getErr := bucket.Get(ctx, d.ObjectKey())
		if getErr != nil {
			return nil, s.objectError(ctx, op, d, getErr)
		}

		res.Object = info

		if d.PasteType == model.PasteTypeLink {
			target, linkErr := readLink(body)
			if linkErr != nil {
				return nil, linkErr
			}

			res.Kind = ReadLink
			res.RedirectURL = target
		} else {
			res.Kind = ReadContent
			res.Body = body
		}
	}

	next.AccessCount++
	s.saveAsync(ctx, "paste.access_count", next)
	s.events.accessed(ctx, next)

	res.Descriptor = next.Clone()

	return res, nil
}

// objectError 对象缺失时清理描述符并返回 NotFound.
func (s *PasteService) objectError(ctx context.Context, op string, d *model.PasteDescriptor, err error) error {
	if errors.Is(err, s3.ErrObjectNotFound) {
		s.reap(ctx, d, queue.ReasonObjectMissing)
		return notFound(op, d.UUID)
	}

	return upstream(op, err)
}

// readLink 读取并解析链接内容，必须是带主机名的绝对 URL.
func readLink(body io.ReadCloser) (string, error) {
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, maxLinkSize))
	if err != nil {
		return "", upstream("read", err)
	}

	target := strings.TrimSpace(string(raw))

	u, err := url.Parse(target)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", invalid("read", "invalid URL", err)
	}

	return target, nil
}

// Info 返回描述符快照，不检查密码也不增加访问计数.
func (s *PasteService) Info(ctx context.Context, id string) (d *model.PasteDescriptor, err error) {
	const op = "info"

	ctx, done := observe(ctx, op, id)
	defer func() { done(err) }()

	return s.loadActive(ctx, op, id)
}

// GetPresignedDownloadURL 返回描述符的预签名 GET.
// 缓存的 URL 剩余有效期大于安全余量时直接复用；否则重新签名，写回 d 并在后台持久化.
func (s *PasteService) GetPresignedDownloadURL(ctx context.Context, d *model.PasteDescriptor) (u string, err error) {
	const op = "presign"

	ctx, done := observe(ctx, op, d.UUID)
	defer func() { done(err) }()

	bucket, err := s.bucketFor(op, d.Location())
	if err != nil {
		return "", err
	}

	u, refreshed, err := s.presignedURL(ctx, d, bucket)
	if err != nil {
		return "", upstream(op, err)
	}

	if refreshed {
		s.saveAsync(ctx, "paste.presign_cache", d)
	}

	return u, nil
}

type presignResult struct {
	url       string
	expiresAt time.Time
}

// presignedURL 复用或刷新 d 上缓存的 URL，refreshed 表示 d 已被修改.
func (s *PasteService) presignedURL(ctx context.Context, d *model.PasteDescriptor, bucket s3.Bucket) (string, bool, error) {
	now := s.now()

	if d.CachedPresignedURL != "" && d.CachedPresignedURLExpiresAt != nil &&
		d.CachedPresignedURLExpiresAt.Sub(now) > s.cfg.PresignMargin {
		metrics.PresignCache.WithLabelValues("hit").Inc()
		return d.CachedPresignedURL, false, nil
	}

	metrics.PresignCache.WithLabelValues("miss").Inc()

	// 同一粘贴的并发刷新合并为一次签名，标题或类型不同则分开
	key := strconv.FormatUint(xxhash.Sum64String(d.UUID+"\x00"+bucket.Name()+"\x00"+d.MimeType+"\x00"+d.Title), 16)

	v, err, _ := s.presign.Do(key, func() (any, error) {
		u, err := bucket.PresignGet(ctx, d.ObjectKey(), s.cfg.PresignExpiry, responseParams(d))
		if err != nil {
			return nil, fmt.Errorf("presign get %s: %w", d.UUID, err)
		}

		return presignResult{url: u.String(), expiresAt: now.Add(s.cfg.PresignExpiry).UTC()}, nil
	})
	if err != nil {
		return "", false, err
	}

	r, _ := v.(presignResult)
	d.CachedPresignedURL = r.url
	d.CachedPresignedURLExpiresAt = &r.expiresAt

	return r.url, true, nil
}

// responseParams 预签名 GET 的响应头覆盖参数.
func responseParams(d *model.PasteDescriptor) url.Values {
	q := url.Values{}

	if d.MimeType != "" {
		q.Set("response-content-type", d.MimeType)
	}

	if d.Title != "" {
		q.Set("response-content-disposition", ContentDisposition("inline", d.Title))
	}

	return q
}

// ContentDisposition 构造带 UTF-8 文件名的 Content-Disposition.
func ContentDisposition(kind, filename string) string {
	return kind + "; filename*=UTF-8''" + url.PathEscape(filename)
}
