package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/pastevault/pkg/internal/model"
	"github.com/yeisme/pastevault/pkg/internal/service"
	"github.com/yeisme/pastevault/pkg/queue"
)

func ptr[T any](v T) *T { return &v }

func TestUpdateMetadataPartialPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.create(t, "body", service.CreatePasteInput{Title: "a.txt", MimeType: "text/plain", MaxAccessCount: 3})

	got, err := f.svc.UpdateMetadata(ctx, d.UUID, "", service.MetadataPatch{Title: ptr("b.txt")})
	require.NoError(t, err)
	assert.Equal(t, "b.txt", got.Title)
	assert.Equal(t, "text/plain", got.MimeType)
	assert.Equal(t, int64(3), got.MaxAccessCount)
	assert.Equal(t, d.FileSize, got.FileSize)
	assert.Equal(t, d.FileHash, got.FileHash)
	assert.Equal(t, d.UUID, got.UUID)

	got, err = f.svc.UpdateMetadata(ctx, d.UUID, "", service.MetadataPatch{MaxAccessCount: ptr(int64(0))})
	require.NoError(t, err)
	assert.Equal(t, "b.txt", got.Title)
	assert.Equal(t, int64(0), got.MaxAccessCount)

	stored, err := f.svc.Info(ctx, d.UUID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestIndexTTLFollowsExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.create(t, "body", service.CreatePasteInput{Expire: 2 * time.Hour})
	assert.Equal(t, 2*time.Hour, f.ttls.TTL(d.UUID))

	f.advance(30 * time.Minute)

	res, err := f.svc.ReadAccess(ctx, d.UUID, "")
	require.NoError(t, err)
	assert.Equal(t, "body", readAll(t, res))
	assert.Equal(t, 90*time.Minute, f.ttls.TTL(d.UUID))

	f.advance(10 * time.Minute)

	_, err = f.svc.UpdateMetadata(ctx, d.UUID, "", service.MetadataPatch{Title: ptr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, 80*time.Minute, f.ttls.TTL(d.UUID))
}

func TestUpdateMetadataPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.create(t, "body", service.CreatePasteInput{})

	_, err := f.svc.UpdateMetadata(ctx, d.UUID, "", service.MetadataPatch{Password: ptr("bad pass")})
	assert.ErrorIs(t, err, service.ErrValidationFailed)

	got, err := f.svc.UpdateMetadata(ctx, d.UUID, "", service.MetadataPatch{Password: ptr("s3cret")})
	require.NoError(t, err)
	assert.True(t, got.HasPassword())

	// 设置密码后修改任何字段都需要密码，包括清除密码本身
	_, err = f.svc.UpdateMetadata(ctx, d.UUID, "", service.MetadataPatch{Password: ptr("")})
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = f.svc.ReadAccess(ctx, d.UUID, "")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	got, err = f.svc.UpdateMetadata(ctx, d.UUID, "s3cret", service.MetadataPatch{Password: ptr("")})
	require.NoError(t, err)
	assert.False(t, got.HasPassword())

	res, err := f.svc.ReadAccess(ctx, d.UUID, "")
	require.NoError(t, err)
	assert.Equal(t, "body", readAll(t, res))
}

func TestUpdateMetadataClearsPresignCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.completed(t, []byte("large"), service.CreateLargeInput{Title: "a.bin"})
	_, err := f.svc.GetPresignedDownloadURL(ctx, d)
	require.NoError(t, err)

	got, err := f.svc.UpdateMetadata(ctx, d.UUID, "", service.MetadataPatch{MaxAccessCount: ptr(int64(9))})
	require.NoError(t, err)
	assert.NotEmpty(t, got.CachedPresignedURL)

	got, err = f.svc.UpdateMetadata(ctx, d.UUID, "", service.MetadataPatch{Title: ptr("b.bin")})
	require.NoError(t, err)
	assert.Empty(t, got.CachedPresignedURL)
	assert.Nil(t, got.CachedPresignedURLExpiresAt)
}

func TestUpdateMetadataValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	link := f.create(t, "https://example.com", service.CreatePasteInput{PasteType: model.PasteTypeLink})

	_, err := f.svc.UpdateMetadata(ctx, link.UUID, "", service.MetadataPatch{MimeType: ptr("text/html")})
	assert.ErrorIs(t, err, service.ErrValidationFailed)

	_, err = f.svc.UpdateMetadata(ctx, link.UUID, "", service.MetadataPatch{MaxAccessCount: ptr(int64(-2))})
	assert.ErrorIs(t, err, service.ErrValidationFailed)

	_, err = f.svc.UpdateMetadata(ctx, link.UUID, "", service.MetadataPatch{ExpiredAt: ptr(f.clock().Add(-time.Second))})
	assert.ErrorIs(t, err, service.ErrValidationFailed)

	at := f.clock().Add(time.Hour)
	got, err := f.svc.UpdateMetadata(ctx, link.UUID, "", service.MetadataPatch{ExpiredAt: &at})
	require.NoError(t, err)
	assert.Equal(t, at, got.ExpiredAt)

	f.advance(time.Hour)

	_, err = f.svc.ReadAccess(ctx, link.UUID, "")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeletePaste(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.create(t, "bye", service.CreatePasteInput{Password: "abc123"})

	assert.ErrorIs(t, f.svc.DeletePaste(ctx, d.UUID, "nope"), service.ErrUnauthorized)
	assert.True(t, f.def.Has(d.UUID))

	require.NoError(t, f.svc.DeletePaste(ctx, d.UUID, "abc123"))
	assert.False(t, f.def.Has(d.UUID))

	_, err := f.svc.Info(ctx, d.UUID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteKeepsRecordWhenObjectDeleteFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.create(t, "sticky", service.CreatePasteInput{})
	f.def.Fail = errors.New("access denied")

	err := f.svc.DeletePaste(ctx, d.UUID, "")
	assert.ErrorIs(t, err, service.ErrUpstreamFailure)

	info, err := f.svc.Info(ctx, d.UUID)
	require.NoError(t, err)
	assert.Equal(t, d.UUID, info.UUID)

	f.def.Fail = nil
	require.NoError(t, f.svc.DeletePaste(ctx, d.UUID, ""))
}

func TestLifecycleEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.create(t, "evented", service.CreatePasteInput{})

	res, err := f.svc.ReadAccess(ctx, d.UUID, "")
	require.NoError(t, err)
	readAll(t, res)

	_, err = f.svc.UpdateMetadata(ctx, d.UUID, "", service.MetadataPatch{Title: ptr("t")})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeletePaste(ctx, d.UUID, ""))

	// accessed 主题未开启
	assert.Equal(t, []string{queue.TopicPasteCreated, queue.TopicPasteUpdated, queue.TopicPasteDeleted}, f.pub.Topics())

	env, err := queue.ParsePaste(f.pub.msgs[1])
	require.NoError(t, err)
	assert.Equal(t, queue.TopicPasteUpdated, env.Header.Topic)
	assert.Equal(t, d.UUID, env.Payload.Paste.ID)
	assert.Equal(t, []string{"title"}, env.Payload.Fields)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, "one", service.CreatePasteInput{Password: "abc"})
	f.create(t, "https://example.com", service.CreatePasteInput{PasteType: model.PasteTypeLink})
	f.upload(t, []byte("pending"), service.CreateLargeInput{})

	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), st.Total())
	assert.Equal(t, int64(1), st.Counts[service.StatsKey{Type: "paste", State: service.StateActive}])
	assert.Equal(t, int64(1), st.Counts[service.StatsKey{Type: "link", State: service.StateActive}])
	assert.Equal(t, int64(1), st.Counts[service.StatsKey{Type: "large_paste", State: service.StatePending}])
	assert.Equal(t, int64(1), st.Protected)
	assert.Equal(t, int64(3+19+7), st.Bytes)
}

func TestErrorKinds(t *testing.T) {
	err := error(&service.Error{Kind: service.KindNotFound, Op: "read", Msg: "paste x not found"})

	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.NotErrorIs(t, err, service.ErrUnauthorized)
	assert.Equal(t, service.KindNotFound, service.KindOf(err))
	assert.Equal(t, service.KindUnknown, service.KindOf(errors.New("plain")))
	assert.Equal(t, "read: paste x not found", err.Error())
}
