package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/pastevault/pkg/configs"
	"github.com/yeisme/pastevault/pkg/credential"
	"github.com/yeisme/pastevault/pkg/internal/model"
	"github.com/yeisme/pastevault/pkg/internal/service"
	"github.com/yeisme/pastevault/pkg/internal/storage/kv"
	"github.com/yeisme/pastevault/pkg/internal/storage/s3"
	"github.com/yeisme/pastevault/pkg/internal/storage/s3/s3test"
	"github.com/yeisme/pastevault/pkg/internal/worker"
	"github.com/yeisme/pastevault/pkg/queue"
)

type fixture struct {
	svc   *service.PasteService
	def   *s3test.Bucket
	large *s3test.Bucket
	kv    *kv.MemoryKV
	ttls  *ttlRecorder
	pub   *recorder

	mu  sync.Mutex
	now time.Time
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func testConfig() configs.PasteConfig {
	return configs.PasteConfig{
		IDLength:            configs.DefaultIDLength,
		IDAlphabet:          configs.DefaultIDAlphabet,
		Retention:           configs.DefaultRetention,
		PendingTTL:          configs.DefaultPendingTTL,
		PresignExpiry:       configs.DefaultPresignExpiry,
		PresignMargin:       configs.DefaultPresignMargin,
		LargeProxyThreshold: configs.DefaultLargeProxyThreshold,
		InlineMaxSize:       configs.DefaultInlineMaxSize,
		PasswordMaxLength:   configs.DefaultPasswordMaxLength,
		PasswordScheme:      configs.PasswordSchemeSHA256,
		KeyPrefix:           configs.DefaultKeyPrefix,
	}
}

func newFixture(t *testing.T, tweak ...func(*configs.PasteConfig)) *fixture {
	t.Helper()

	f := &fixture{
		now:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		def:   s3test.New(configs.LocationDefault, configs.LocationConfig{MaxFileSize: 1 << 20}),
		large: s3test.New(configs.LocationLarge, configs.LocationConfig{MaxFileSize: 1 << 30}),
		pub:   &recorder{},
	}
	f.kv = kv.NewMemoryKVWithClock(f.clock)
	f.ttls = &ttlRecorder{KVStore: f.kv, ttls: map[string]time.Duration{}}

	cfg := testConfig()
	for _, fn := range tweak {
		fn(&cfg)
	}

	svc, err := service.NewPasteService(cfg, service.Deps{
		Resolver:  s3.NewStaticResolver(f.def, f.large),
		KV:        f.ttls,
		Publisher: f.pub,
		Events: configs.EventsConfig{
			Enabled: true,
			Paste: configs.PasteEventsConfig{
				Created: true, Completed: true, Deleted: true, Reaped: true, Updated: true,
			},
		},
		Async: worker.Inline{},
		Clock: f.clock,
	})
	require.NoError(t, err)

	f.svc = svc

	return f
}

func (f *fixture) create(t *testing.T, content string, in service.CreatePasteInput) *model.PasteDescriptor {
	t.Helper()

	in.Content = strings.NewReader(content)
	in.Size = int64(len(content))

	d, err := f.svc.CreatePaste(context.Background(), in)
	require.NoError(t, err)

	return d
}

func readAll(t *testing.T, res *service.ReadResult) string {
	t.Helper()
	require.Equal(t, service.ReadContent, res.Kind)

	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	return string(b)
}

// ttlRecorder 记录描述符最近一次写入的 TTL.
type ttlRecorder struct {
	kv.KVStore

	mu   sync.Mutex
	ttls map[string]time.Duration
}

func (r *ttlRecorder) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	r.mu.Lock()
	r.ttls[key] = ttl
	r.mu.Unlock()

	return r.KVStore.Set(ctx, key, value, ttl)
}

func (r *ttlRecorder) TTL(id string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ttls[configs.DefaultKeyPrefix+id]
}

// recorder 记录发布的事件主题.
type recorder struct {
	mu     sync.Mutex
	topics []string
	msgs   []*message.Message
}

func (r *recorder) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.topics = append(r.topics, topic)
	r.msgs = append(r.msgs, msgs...)

	return nil
}

func (r *recorder) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.topics...)
}

func TestCreateAndReadRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []string{"x", "hello world", strings.Repeat("日本語", 1000), "line1\nline2\x00binary"}

	for _, content := range cases {
		d := f.create(t, content, service.CreatePasteInput{Title: "a.txt", MimeType: "text/plain"})

		assert.Len(t, d.UUID, configs.DefaultIDLength)
		assert.Equal(t, int64(0), d.AccessCount)
		assert.Equal(t, configs.LocationDefault, d.StorageLocation)
		assert.Equal(t, f.clock().Add(configs.DefaultRetention), d.ExpiredAt)

		sum := sha256.Sum256([]byte(content))
		assert.Equal(t, hex.EncodeToString(sum[:]), d.FileHash)

		res, err := f.svc.ReadAccess(ctx, d.UUID, "")
		require.NoError(t, err)
		assert.Equal(t, content, readAll(t, res))
		assert.Equal(t, "a.txt", res.Descriptor.Title)
		assert.Equal(t, "text/plain", res.Descriptor.MimeType)
		assert.Equal(t, int64(1), res.Descriptor.AccessCount)

		info, err := f.svc.Info(ctx, d.UUID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), info.AccessCount)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePaste(ctx, service.CreatePasteInput{Content: strings.NewReader(""), Size: 0})
	assert.ErrorIs(t, err, service.ErrValidationFailed)

	_, err = f.svc.CreatePaste(ctx, service.CreatePasteInput{
		Content: strings.NewReader("x"), Size: 1, PasteType: model.PasteTypeLargePaste,
	})
	assert.ErrorIs(t, err, service.ErrValidationFailed)

	_, err = f.svc.CreatePaste(ctx, service.CreatePasteInput{Content: strings.NewReader("x"), Size: 1, Password: "pa ss"})
	assert.ErrorIs(t, err, service.ErrValidationFailed)

	_, err = f.svc.CreatePaste(ctx, service.CreatePasteInput{Content: strings.NewReader("x"), Size: 1, MaxAccessCount: -1})
	assert.ErrorIs(t, err, service.ErrValidationFailed)

	keys, err := f.kv.Keys(ctx, "*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestCreateTooLarge(t *testing.T) {
	f := newFixture(t)

	big := strings.Repeat("a", 1<<20+1)
	_, err := f.svc.CreatePaste(context.Background(), service.CreatePasteInput{
		Content: strings.NewReader(big), Size: int64(len(big)),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrTooLarge)
	assert.ErrorIs(t, err, service.ErrLimitExceeded)
	assert.NotErrorIs(t, err, service.ErrAccessExhausted)
}

func TestCreateObjectFailureLeavesNoDescriptor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.def.Fail = errors.New("connection reset")

	_, err := f.svc.CreatePaste(ctx, service.CreatePasteInput{Content: strings.NewReader("hello"), Size: 5})
	require.ErrorIs(t, err, service.ErrUpstreamFailure)

	var se *service.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "internal error", se.Public())
	assert.NotContains(t, se.Public(), "connection reset")

	keys, err := f.kv.Keys(ctx, "*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestCreateUnknownLocation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreatePaste(context.Background(), service.CreatePasteInput{
		Content: strings.NewReader("x"), Size: 1, Location: "eu-west",
	})
	assert.ErrorIs(t, err, service.ErrConfiguration)
}

func TestCreateExpireBoundedByLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.create(t, "short", service.CreatePasteInput{Expire: time.Hour})
	assert.Equal(t, f.clock().Add(time.Hour), d.ExpiredAt)

	f.def = s3test.New(configs.LocationDefault, configs.LocationConfig{MaxTTL: 2 * time.Hour})
	svc, err := service.NewPasteService(testConfig(), service.Deps{
		Resolver: s3.NewStaticResolver(f.def),
		KV:       f.kv,
		Async:    worker.Inline{},
		Clock:    f.clock,
	})
	require.NoError(t, err)

	_, err = svc.CreatePaste(ctx, service.CreatePasteInput{Content: strings.NewReader("x"), Size: 1, Expire: 3 * time.Hour})
	assert.ErrorIs(t, err, service.ErrValidationFailed)

	// 默认保留期被位置上限截断
	d, err = svc.CreatePaste(ctx, service.CreatePasteInput{Content: strings.NewReader("x"), Size: 1})
	require.NoError(t, err)
	assert.Equal(t, f.clock().Add(2*time.Hour), d.ExpiredAt)
}

func TestPasswordGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, password := range []string{"a", "abc123", "ZZZZ9999", strings.Repeat("p", 64)} {
		d := f.create(t, "secret", service.CreatePasteInput{Password: password})
		assert.True(t, d.HasPassword())
		assert.NotEqual(t, password, d.PasswordFingerprint)

		_, err := f.svc.ReadAccess(ctx, d.UUID, "")
		assert.ErrorIs(t, err, service.ErrUnauthorized)

		_, err = f.svc.ReadAccess(ctx, d.UUID, password+"x")
		assert.ErrorIs(t, err, service.ErrUnauthorized)

		res, err := f.svc.ReadAccess(ctx, d.UUID, password)
		require.NoError(t, err)
		assert.Equal(t, "secret", readAll(t, res))
	}
}

func TestFingerprintIsCompatible(t *testing.T) {
	f := newFixture(t)

	d := f.create(t, "x", service.CreatePasteInput{Password: "abc123"})
	assert.Equal(t, credential.SHA256Fingerprint("abc123"), d.PasswordFingerprint)
	assert.Len(t, d.PasswordFingerprint, credential.FingerprintLength)
}

func TestAccessCountExhaustion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, n := range []int64{1, 2, 5} {
		d := f.create(t, "limited", service.CreatePasteInput{MaxAccessCount: n})

		for i := int64(1); i <= n; i++ {
			res, err := f.svc.ReadAccess(ctx, d.UUID, "")
			require.NoError(t, err, "read %d of %d", i, n)
			assert.Equal(t, i, res.Descriptor.AccessCount)
			readAll(t, res)
		}

		info, err := f.svc.Info(ctx, d.UUID)
		require.NoError(t, err)
		assert.Equal(t, n, info.AccessCount)

		_, err = f.svc.ReadAccess(ctx, d.UUID, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, service.ErrAccessExhausted)
		assert.ErrorIs(t, err, service.ErrLimitExceeded)

		info, err = f.svc.Info(ctx, d.UUID)
		require.NoError(t, err)
		assert.Equal(t, n, info.AccessCount, "rejected read must not increment")
	}
}

func TestConcreteScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.CreatePaste(ctx, service.CreatePasteInput{
		Content:        strings.NewReader("hello"),
		Size:           5,
		PasteType:      model.PasteTypePaste,
		Password:       "abc123",
		MaxAccessCount: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), d.AccessCount)
	assert.True(t, d.HasPassword())

	res, err := f.svc.ReadAccess(ctx, d.UUID, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "hello", readAll(t, res))
	assert.Equal(t, int64(1), res.Descriptor.AccessCount)

	_, err = f.svc.ReadAccess(ctx, d.UUID, "abc123")
	assert.ErrorIs(t, err, service.ErrLimitExceeded)
}

func TestPasswordCheckedBeforeExhaustion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.create(t, "x", service.CreatePasteInput{Password: "abc123", MaxAccessCount: 1})

	res, err := f.svc.ReadAccess(ctx, d.UUID, "abc123")
	require.NoError(t, err)
	readAll(t, res)

	_, err = f.svc.ReadAccess(ctx, d.UUID, "")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestLinkRedirection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.create(t, "https://example.com/x", service.CreatePasteInput{PasteType: model.PasteTypeLink, MimeType: "text/html"})
	assert.Equal(t, model.LinkMimeType, d.MimeType)

	res, err := f.svc.ReadAccess(ctx, d.UUID, "")
	require.NoError(t, err)
	assert.Equal(t, service.ReadLink, res.Kind)
	assert.Equal(t, "https://example.com/x", res.RedirectURL)
	assert.Equal(t, int64(1), res.Descriptor.AccessCount)

	bad := f.create(t, "not a url", service.CreatePasteInput{PasteType: model.PasteTypeLink})

	_, err = f.svc.ReadAccess(ctx, bad.UUID, "")
	assert.ErrorIs(t, err, service.ErrValidationFailed)

	info, err := f.svc.Info(ctx, bad.UUID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.AccessCount)
}

func TestReapOnMissingObject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.create(t, "gone soon", service.CreatePasteInput{})
	require.NoError(t, f.def.Remove(ctx, d.UUID))

	_, err := f.svc.ReadAccess(ctx, d.UUID, "")
	assert.ErrorIs(t, err, service.ErrNotFound)

	ok, err := f.kv.Exists(ctx, configs.DefaultKeyPrefix+d.UUID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, f.pub.Topics(), queue.TopicPasteReaped)
}

func TestExpiredPasteIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.create(t, "x", service.CreatePasteInput{Expire: time.Minute})
	f.advance(time.Minute)

	_, err := f.svc.ReadAccess(ctx, d.UUID, "")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.svc.Info(ctx, d.UUID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUnknownPaste(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ReadAccess(ctx, "Zz99", "")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.svc.CompletePendingUpload(ctx, "Zz99")
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.ErrorIs(t, f.svc.DeletePaste(ctx, "Zz99", ""), service.ErrNotFound)
}

func TestDescriptorToleratesLegacyRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.def.Upload("Ab12", []byte("legacy"), "")
	require.NoError(t, f.kv.Set(ctx, configs.DefaultKeyPrefix+"Ab12", []byte(`{"paste_type":0,"file_size":6}`), 0))

	res, err := f.svc.ReadAccess(ctx, "Ab12", "")
	require.NoError(t, err)
	assert.Equal(t, "legacy", readAll(t, res))
	assert.Equal(t, "Ab12", res.Descriptor.UUID)
}
