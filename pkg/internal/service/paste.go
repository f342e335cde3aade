package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/pastevault/pkg/cache"
	"github.com/yeisme/pastevault/pkg/configs"
	ctxPkg "github.com/yeisme/pastevault/pkg/context"
	"github.com/yeisme/pastevault/pkg/credential"
	"github.com/yeisme/pastevault/pkg/idgen"
	"github.com/yeisme/pastevault/pkg/internal/storage/kv"
	"github.com/yeisme/pastevault/pkg/internal/storage/s3"
	"github.com/yeisme/pastevault/pkg/internal/worker"
	nlog "github.com/yeisme/pastevault/pkg/log"
	"github.com/yeisme/pastevault/pkg/queue"
)

// idAttempts 生成标识符时遇到已占用键的最大重试次数.
const idAttempts = 5

// Resolver 按名称查找存储位置.
type Resolver interface {
	Resolve(name string) (s3.Bucket, error)
}

// Deps 引擎的协作方.
type Deps struct {
	Resolver Resolver
	KV       kv.KVStore
	// Publisher 为空时不发布事件
	Publisher queue.Publisher
	Events    configs.EventsConfig
	// Async 为空时按 PasteConfig.AsyncWrites 选择 worker.Pool 或 worker.Inline
	Async  worker.Dispatcher
	Clock  func() time.Time
	Logger *zerolog.Logger
}

// PasteService 粘贴生命周期引擎.
//
// 引擎不持有可变的共享状态，每个操作独立读写描述符.
// 对同一描述符的读改写不是事务性的，并发时后写者覆盖先写者.
type PasteService struct {
	cfg      configs.PasteConfig
	resolver Resolver
	store    *cache.Cache
	ids      *idgen.Generator
	hasher   *credential.Hasher
	async    worker.Dispatcher
	events   *emitter
	now      func() time.Time
	logger   *zerolog.Logger

	presign singleflight.Group
}

// NewPasteService 创建引擎.
func NewPasteService(cfg configs.PasteConfig, deps Deps) (*PasteService, error) {
	if deps.Resolver == nil {
		return nil, fmt.Errorf("paste service: storage resolver is required")
	}

	if deps.KV == nil {
		return nil, fmt.Errorf("paste service: kv store is required")
	}

	ids, err := idgen.New(cfg.IDLength, cfg.IDAlphabet)
	if err != nil {
		return nil, fmt.Errorf("paste service: %w", err)
	}

	hasher, err := credential.New(cfg.PasswordScheme, cfg.PasswordMaxLength)
	if err != nil {
		return nil, fmt.Errorf("paste service: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = configs.DefaultKeyPrefix
	}

	logger := deps.Logger
	if logger == nil {
		logger = nlog.Logger()
	}

	async := deps.Async
	if async == nil {
		if cfg.AsyncWrites {
			async = worker.NewPool(cfg.AsyncConcurrency, cfg.AsyncTimeout, logger)
		} else {
			async = worker.Inline{Logger: logger}
		}
	}

	now := deps.Clock
	if now == nil {
		now = time.Now
	}

	s := &PasteService{
		cfg:      cfg,
		resolver: deps.Resolver,
		store:    cache.NewCache(deps.KV, prefix),
		ids:      ids,
		hasher:   hasher,
		async:    async,
		now:      now,
		logger:   logger,
	}

	if deps.Publisher != nil && deps.Events.Enabled {
		s.events = &emitter{pub: deps.Publisher, cfg: deps.Events.Paste, async: async}
	}

	return s, nil
}

// NewPasteServiceFromContext 从上下文中的存储管理器取得协作方.
func NewPasteServiceFromContext(c context.Context, cfg *configs.AppConfig, async worker.Dispatcher) (*PasteService, error) {
	resolver := ctxPkg.GetS3Resolver(c)
	if resolver == nil {
		return nil, fmt.Errorf("paste service: s3 resolver not initialized")
	}

	kvc := ctxPkg.GetKVClient(c)
	if kvc == nil {
		return nil, fmt.Errorf("paste service: kv client not initialized")
	}

	deps := Deps{
		Resolver: resolver,
		KV:       kvc,
		Events:   cfg.Events,
		Async:    async,
	}

	if mqc := ctxPkg.GetMQClient(c); mqc != nil {
		deps.Publisher = mqc
	} else if cfg.Events.Enabled {
		nlog.Logger().Warn().Msg("MQ client not initialized, paste events disabled")
	}

	return NewPasteService(cfg.Paste, deps)
}

// Config 引擎参数.
func (s *PasteService) Config() configs.PasteConfig { return s.cfg }

// Hasher 密码指纹生成器.
func (s *PasteService) Hasher() *credential.Hasher { return s.hasher }

// ValidID 判断标识符是否只包含字母表字符.
func (s *PasteService) ValidID(id string) bool { return s.ids.Valid(id) }

// bucketFor 解析存储位置.
func (s *PasteService) bucketFor(op, name string) (s3.Bucket, error) {
	b, err := s.resolver.Resolve(name)
	if err != nil {
		return nil, misconfigured(op, err)
	}

	return b, nil
}

// checkPassword 无密码的粘贴总是通过.
func (s *PasteService) checkPassword(op, fingerprint, plain string) error {
	if fingerprint == "" {
		return nil
	}

	if !s.hasher.Verify(plain, fingerprint) {
		return unauthorized(op)
	}

	return nil
}

// fingerprint 校验并计算密码指纹，空密码返回空指纹.
func (s *PasteService) fingerprint(op, plain string) (string, error) {
	if plain == "" {
		return "", nil
	}

	if err := s.hasher.Validate(plain); err != nil {
		return "", invalid(op, err.Error(), nil)
	}

	fp, err := s.hasher.Fingerprint(plain)
	if err != nil {
		return "", newError(KindUnknown, op, "password hashing failed", err)
	}

	return fp, nil
}

// retention 计算过期时间：请求值为 0 时使用默认保留期，且不超过位置的 max_ttl.
func (s *PasteService) retention(op string, requested time.Duration, profile configs.LocationConfig) (time.Duration, error) {
	if requested < 0 {
		return 0, invalid(op, "expire must not be negative", nil)
	}

	ttl := requested
	if ttl == 0 {
		ttl = s.cfg.Retention
	}

	if profile.MaxTTL > 0 && ttl > profile.MaxTTL {
		if requested > 0 {
			return 0, invalid(op, fmt.Sprintf("expire exceeds location max_ttl %s", profile.MaxTTL), nil)
		}

		ttl = profile.MaxTTL
	}

	return ttl, nil
}

func checkSize(op string, size int64, profile configs.LocationConfig) error {
	if profile.MaxFileSize > 0 && size > profile.MaxFileSize {
		return tooLarge(op, size, profile.MaxFileSize)
	}

	return nil
}
