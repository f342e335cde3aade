package service

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/yeisme/pastevault/pkg/internal/model"
	"github.com/yeisme/pastevault/pkg/internal/storage/s3"
	"github.com/yeisme/pastevault/pkg/queue"
)

// MetadataPatch 部分更新，nil 字段保持不变.
type MetadataPatch struct {
	// Password 空字符串表示清除密码
	Password       *string
	MaxAccessCount *int64
	Title          *string
	MimeType       *string
	ExpiredAt      *time.Time
}

// Empty 是否没有任何字段.
func (p MetadataPatch) Empty() bool {
	return p.Password == nil && p.MaxAccessCount == nil && p.Title == nil && p.MimeType == nil && p.ExpiredAt == nil
}

// UpdateMetadata 修改可编辑字段. 待上传的粘贴不可修改，有密码时必须先通过校验.
func (s *PasteService) UpdateMetadata(ctx context.Context, id, password string, patch MetadataPatch) (d *model.PasteDescriptor, err error) {
	const op = "update"

	ctx, done := observe(ctx, op, id)
	defer func() { done(err) }()

	cur, err := s.loadActive(ctx, op, id)
	if err != nil {
		return nil, err
	}

	if cur.IsPending() {
		return nil, precondition(op, "upload not finalized")
	}

	if err = s.checkPassword(op, cur.PasswordFingerprint, password); err != nil {
		return nil, err
	}

	next := cur.Clone()
	fields := make([]string, 0, 5)

	if patch.Password != nil {
		fp, fpErr := s.fingerprint(op, *patch.Password)
		if fpErr != nil {
			return nil, fpErr
		}

		next.PasswordFingerprint = fp
		fields = append(fields, "password")
	}

	if patch.MaxAccessCount != nil {
		if *patch.MaxAccessCount < 0 {
			return nil, invalid(op, "max_access_count must not be negative", nil)
		}

		next.MaxAccessCount = *patch.MaxAccessCount
		fields = append(fields, "max_access_count")
	}

	if patch.Title != nil {
		next.Title = *patch.Title
		fields = append(fields, "title")
	}

	if patch.MimeType != nil {
		if cur.PasteType == model.PasteTypeLink && *patch.MimeType != model.LinkMimeType {
			return nil, invalid(op, "mime_type of a link paste cannot be changed", nil)
		}

		next.MimeType = *patch.MimeType
		fields = append(fields, "mime_type")
	}

	if patch.ExpiredAt != nil {
		if err = s.checkExpiry(op, cur, *patch.ExpiredAt); err != nil {
			return nil, err
		}

		next.ExpiredAt = patch.ExpiredAt.UTC()
		fields = append(fields, "expired_at")
	}

	// 预签名 URL 中签入了响应头
	if next.Title != cur.Title || next.MimeType != cur.MimeType {
		next.ClearPresignCache()
	}

	if err = s.save(ctx, next); err != nil {
		return nil, upstream(op, err)
	}

	s.events.updated(ctx, next, fields)

	return next.Clone(), nil
}

// checkExpiry 新的过期时间必须在未来，且不超过位置的 max_ttl.
func (s *PasteService) checkExpiry(op string, d *model.PasteDescriptor, at time.Time) error {
	now := s.now()
	if !at.After(now) {
		return invalid(op, "expired_at must be in the future", nil)
	}

	bucket, err := s.bucketFor(op, d.Location())
	if err != nil {
		return err
	}

	if limit := bucket.Profile().MaxTTL; limit > 0 && at.Sub(now) > limit {
		return invalid(op, fmt.Sprintf("expired_at exceeds location max_ttl %s", limit), nil)
	}

	return nil
}

// DeletePaste 先删除对象再删除描述符. 对象删除失败时保留描述符并返回错误.
func (s *PasteService) DeletePaste(ctx context.Context, id, password string) (err error) {
	const op = "delete"

	ctx, done := observe(ctx, op, id)
	defer func() { done(err) }()

	d, err := s.loadActive(ctx, op, id)
	if err != nil {
		return err
	}

	if d.IsPending() {
		return precondition(op, "upload not finalized")
	}

	if err = s.checkPassword(op, d.PasswordFingerprint, password); err != nil {
		return err
	}

	bucket, err := s.bucketFor(op, d.Location())
	if err != nil {
		return err
	}

	if rmErr := bucket.Remove(ctx, d.ObjectKey()); rmErr != nil && !errors.Is(rmErr, s3.ErrObjectNotFound) {
		return upstream(op, rmErr)
	}

	if err = s.remove(ctx, id); err != nil {
		return upstream(op, err)
	}

	s.events.deleted(ctx, d)

	return nil
}

// CompletePendingUpload 校验已上传对象的大小后结束握手.
// 大小不一致时返回 ValidationFailed，描述符保持待上传，客户端可重新上传后重试.
func (s *PasteService) CompletePendingUpload(ctx context.Context, id string) (d *model.PasteDescriptor, err error) {
	const op = "complete"

	ctx, done := observe(ctx, op, id)
	defer func() { done(err) }()

	cur, err := s.loadActive(ctx, op, id)
	if err != nil {
		return nil, err
	}

	if cur.PasteType != model.PasteTypeLargePaste || !cur.IsPending() {
		return nil, precondition(op, "paste is not a pending upload")
	}

	bucket, err := s.bucketFor(op, cur.Location())
	if err != nil {
		return nil, err
	}

	info, err := bucket.Stat(ctx, cur.ObjectKey())
	if err != nil {
		if errors.Is(err, s3.ErrObjectNotFound) {
			return nil, invalid(op, "object has not been uploaded", nil)
		}

		return nil, upstream(op, err)
	}

	if info.Size != cur.FileSize {
		return nil, invalid(op, fmt.Sprintf("size mismatch: declared %d, stored %d", cur.FileSize, info.Size), nil)
	}

	if !checksumMatches(cur.FileHash, info.ChecksumSHA256) {
		return nil, invalid(op, "sha256 mismatch", nil)
	}

	now := s.now().UTC()
	next := cur.Clone()
	next.CreatedAt = now

	if saved := cur.UploadTrack.SavedExpiredAt; saved != nil {
		next.ExpiredAt = saved.UTC()
	} else {
		ttl, rerr := s.retention(op, 0, bucket.Profile())
		if rerr != nil {
			return nil, rerr
		}

		next.ExpiredAt = now.Add(ttl)
	}

	// 上传耗时超过了请求的保留期，粘贴不再可读，对象与描述符一并清理
	if next.IsExpired(now) {
		if rmErr := bucket.Remove(ctx, cur.ObjectKey()); rmErr != nil && !errors.Is(rmErr, s3.ErrObjectNotFound) {
			return nil, upstream(op, rmErr)
		}

		s.reap(ctx, cur, queue.ReasonExpired)

		return nil, precondition(op, "requested expire elapsed before the upload completed")
	}

	next.UploadTrack = nil

	if err = s.save(ctx, next); err != nil {
		return nil, upstream(op, err)
	}

	s.events.completed(ctx, next)

	return next.Clone(), nil
}

// loadActive 读取描述符，已过期的视为不存在并清理.
func (s *PasteService) loadActive(ctx context.Context, op, id string) (*model.PasteDescriptor, error) {
	d, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}

	if d.IsExpired(s.now()) {
		s.reap(ctx, d, queue.ReasonExpired)
		return nil, notFound(op, id)
	}

	return d, nil
}

// checksumMatches 对象存储未返回校验和时不做比较.
func checksumMatches(hexSum, b64Sum string) bool {
	if hexSum == "" || b64Sum == "" {
		return true
	}

	want, err := hex.DecodeString(hexSum)
	if err != nil {
		return true
	}

	got, err := base64.StdEncoding.DecodeString(b64Sum)
	if err != nil {
		return true
	}

	return string(want) == string(got)
}
