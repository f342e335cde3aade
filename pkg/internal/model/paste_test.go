package model_test

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/pastevault/pkg/internal/model"
)

func TestPasteTypeSerializesAsName(t *testing.T) {
	d := model.PasteDescriptor{UUID: "abcd", PasteType: model.PasteTypeLargePaste}

	b, err := sonic.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"paste_type":"large_paste"`)
}

func TestPasteTypeAcceptsLegacyIntegers(t *testing.T) {
	cases := map[string]model.PasteType{
		`{"paste_type":0}`:             model.PasteTypePaste,
		`{"paste_type":1}`:             model.PasteTypeLink,
		`{"paste_type":2}`:             model.PasteTypeLargePaste,
		`{"paste_type":"link"}`:        model.PasteTypeLink,
		`{"paste_type":"large_paste"}`: model.PasteTypeLargePaste,
		`{"paste_type":null}`:          model.PasteTypePaste,
		`{}`:                           model.PasteTypePaste,
	}

	for raw, want := range cases {
		var d model.PasteDescriptor
		require.NoError(t, sonic.UnmarshalString(raw, &d), raw)
		assert.Equal(t, want, d.PasteType, raw)
	}
}

func TestPasteTypeRejectsUnknown(t *testing.T) {
	var d model.PasteDescriptor
	assert.Error(t, sonic.UnmarshalString(`{"paste_type":7}`, &d))
	assert.Error(t, sonic.UnmarshalString(`{"paste_type":"blob"}`, &d))
}

func TestDescriptorToleratesMissingFields(t *testing.T) {
	var d model.PasteDescriptor
	require.NoError(t, sonic.UnmarshalString(`{"uuid":"Ab12","file_size":3}`, &d))

	assert.Equal(t, "Ab12", d.UUID)
	assert.Equal(t, int64(3), d.FileSize)
	assert.False(t, d.HasPassword())
	assert.False(t, d.IsPending())
	assert.False(t, d.IsExhausted())
	assert.False(t, d.IsExpired(time.Now()))
	assert.Equal(t, "default", d.Location())
}

func TestDescriptorGates(t *testing.T) {
	now := time.Now()
	d := model.PasteDescriptor{
		PasteType:      model.PasteTypeLargePaste,
		AccessCount:    2,
		MaxAccessCount: 2,
		ExpiredAt:      now,
		UploadTrack:    &model.UploadTrack{Pending: true},
	}

	assert.True(t, d.IsExhausted())
	assert.True(t, d.IsExpired(now))
	assert.False(t, d.IsExpired(now.Add(-time.Second)))
	assert.True(t, d.IsPending())
	assert.Equal(t, "large", d.Location())

	d.StorageLocation = "eu"
	assert.Equal(t, "eu", d.Location())
}

func TestCloneCopiesPointers(t *testing.T) {
	at := time.Now()
	d := &model.PasteDescriptor{
		UploadTrack:                 &model.UploadTrack{Pending: true, SavedExpiredAt: &at},
		CachedPresignedURLExpiresAt: &at,
	}

	c := d.Clone()
	c.UploadTrack.Pending = false
	*c.CachedPresignedURLExpiresAt = at.Add(time.Hour)

	assert.True(t, d.UploadTrack.Pending)
	assert.Equal(t, at, *d.CachedPresignedURLExpiresAt)
}
