package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/yeisme/pastevault/pkg/configs"
	"github.com/yeisme/pastevault/pkg/internal/model"
	"github.com/yeisme/pastevault/pkg/internal/storage/s3"
	"github.com/yeisme/pastevault/pkg/metrics"
)

// CreatePasteInput 普通粘贴或链接的创建参数，传输层已解析好请求体.
type CreatePasteInput struct {
	Content io.Reader
	Size    int64
	// PasteType 只能是 Paste 或 Link
	PasteType      model.PasteType
	Title          string
	MimeType       string
	Password       string
	MaxAccessCount int64
	Location       string
	// Expire 0 表示默认保留期
	Expire time.Duration
}

// CreateLargeInput 大文件上传握手参数.
type CreateLargeInput struct {
	Size int64
	// SHA256 64 位十六进制摘要，签入预签名 PUT
	SHA256         string
	Title          string
	MimeType       string
	Password       string
	MaxAccessCount int64
	Location       string
	Expire         time.Duration
}

// LargeUploadTicket 客户端直传对象存储所需的信息.
type LargeUploadTicket struct {
	Descriptor *model.PasteDescriptor
	Method     string
	URL        string
	// Headers 客户端 PUT 时必须携带的请求头
	Headers   http.Header
	ExpiresAt time.Time
}

// CreatePaste 先写对象再写描述符，对象写入失败时不留下描述符.
func (s *PasteService) CreatePaste(ctx context.Context, in CreatePasteInput) (d *model.PasteDescriptor, err error) {
	const op = "create"

	ctx, done := observe(ctx, op, "")
	defer func() { done(err) }()

	if in.PasteType != model.PasteTypePaste && in.PasteType != model.PasteTypeLink {
		return nil, invalid(op, "paste_type must be paste or link", nil)
	}

	if in.Content == nil || in.Size <= 0 {
		return nil, invalid(op, "content must not be empty", nil)
	}

	if in.MaxAccessCount < 0 {
		return nil, invalid(op, "max_access_count must not be negative", nil)
	}

	location := in.Location
	if location == "" {
		location = configs.LocationDefault
	}

	bucket, err := s.bucketFor(op, location)
	if err != nil {
		return nil, err
	}

	profile := bucket.Profile()
	if err = checkSize(op, in.Size, profile); err != nil {
		return nil, err
	}

	ttl, err := s.retention(op, in.Expire, profile)
	if err != nil {
		return nil, err
	}

	fp, err := s.fingerprint(op, in.Password)
	if err != nil {
		return nil, err
	}

	mime := in.MimeType
	if in.PasteType == model.PasteTypeLink {
		mime = model.LinkMimeType
	}

	id, err := s.newID(ctx, op)
	if err != nil {
		return nil, err
	}

	h := sha256.New()
	if _, err = bucket.Put(ctx, id, io.TeeReader(in.Content, h), in.Size, mime); err != nil {
		return nil, upstream(op, err)
	}

	now := s.now().UTC()
	d = &model.PasteDescriptor{
		UUID:                id,
		PasteType:           in.PasteType,
		Title:               in.Title,
		MimeType:            mime,
		FileSize:            in.Size,
		FileHash:            hex.EncodeToString(h.Sum(nil)),
		PasswordFingerprint: fp,
		MaxAccessCount:      in.MaxAccessCount,
		CreatedAt:           now,
		ExpiredAt:           now.Add(ttl),
		StorageLocation:     bucket.Name(),
	}

	if err = s.save(ctx, d); err != nil {
		// 对象已写入但没有描述符，尝试清理
		if rmErr := bucket.Remove(ctx, id); rmErr != nil {
			s.logger.Warn().Err(rmErr).Str("id", id).Msg("remove orphaned object failed")
		}

		return nil, upstream(op, err)
	}

	metrics.PasteBytes.WithLabelValues(d.PasteType.String()).Observe(float64(d.FileSize))
	s.events.created(ctx, d)

	return d.Clone(), nil
}

// CreateLargePasteUpload 生成预签名 PUT 并写入待上传描述符，不传输内容.
// 描述符的 expired_at 为握手窗口，期望的保留期记录在 upload_track 中，完成时生效.
func (s *PasteService) CreateLargePasteUpload(ctx context.Context, in CreateLargeInput) (t *LargeUploadTicket, err error) {
	const op = "create_large"

	ctx, done := observe(ctx, op, "")
	defer func() { done(err) }()

	if in.Size <= 0 {
		return nil, invalid(op, "size must be positive", nil)
	}

	sum, decErr := hex.DecodeString(in.SHA256)
	if decErr != nil || len(sum) != sha256.Size {
		return nil, invalid(op, "sha256 must be 64 hex characters", nil)
	}

	if in.MaxAccessCount < 0 {
		return nil, invalid(op, "max_access_count must not be negative", nil)
	}

	bucket, err := s.largeBucket(op, in.Location)
	if err != nil {
		return nil, err
	}

	profile := bucket.Profile()
	if err = checkSize(op, in.Size, profile); err != nil {
		return nil, err
	}

	ttl, err := s.retention(op, in.Expire, profile)
	if err != nil {
		return nil, err
	}

	fp, err := s.fingerprint(op, in.Password)
	if err != nil {
		return nil, err
	}

	id, err := s.newID(ctx, op)
	if err != nil {
		return nil, err
	}

	expiry := min(s.cfg.PresignExpiry, s.cfg.PendingTTL)

	u, headers, err := bucket.PresignPut(ctx, id, expiry, in.Size, sum)
	if err != nil {
		return nil, upstream(op, err)
	}

	now := s.now().UTC()

	// 未指定 expire 时，默认保留期从完成时刻起算
	track := &model.UploadTrack{Pending: true}
	if in.Expire > 0 {
		saved := now.Add(ttl)
		track.SavedExpiredAt = &saved
	}

	d := &model.PasteDescriptor{
		UUID:                id,
		PasteType:           model.PasteTypeLargePaste,
		Title:               in.Title,
		MimeType:            in.MimeType,
		FileSize:            in.Size,
		FileHash:            hex.EncodeToString(sum),
		PasswordFingerprint: fp,
		MaxAccessCount:      in.MaxAccessCount,
		CreatedAt:           now,
		ExpiredAt:           now.Add(s.cfg.PendingTTL),
		StorageLocation:     bucket.Name(),
		UploadTrack:         track,
	}

	if err = s.save(ctx, d); err != nil {
		return nil, upstream(op, err)
	}

	s.events.created(ctx, d)

	return &LargeUploadTicket{
		Descriptor: d.Clone(),
		Method:     http.MethodPut,
		URL:        u.String(),
		Headers:    headers,
		ExpiresAt:  now.Add(expiry),
	}, nil
}

// largeBucket 未指定位置时优先使用 large，未配置 large 时回退到 default.
func (s *PasteService) largeBucket(op, location string) (s3.Bucket, error) {
	if location != "" {
		return s.bucketFor(op, location)
	}

	if b, err := s.resolver.Resolve(configs.LocationLarge); err == nil {
		return b, nil
	}

	return s.bucketFor(op, configs.LocationDefault)
}
