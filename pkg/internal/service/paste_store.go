package service

import (
	"context"
	"errors"
	"time"

	"github.com/yeisme/pastevault/pkg/cache"
	"github.com/yeisme/pastevault/pkg/internal/model"
	"github.com/yeisme/pastevault/pkg/internal/storage/kv"
)

// load 读取描述符. 键不存在返回 NotFound，其它存储错误返回 UpstreamFailure.
func (s *PasteService) load(ctx context.Context, op, id string) (*model.PasteDescriptor, error) {
	d, err := cache.Get[model.PasteDescriptor](ctx, s.store, id)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, notFound(op, id)
		}

		return nil, upstream(op, err)
	}

	// 历史记录可能缺少 uuid
	if d.UUID == "" {
		d.UUID = id
	}

	return &d, nil
}

// save 写入描述符，索引 TTL 与 expired_at 对齐.
func (s *PasteService) save(ctx context.Context, d *model.PasteDescriptor) error {
	var ttl time.Duration

	if !d.ExpiredAt.IsZero() {
		ttl = d.ExpiredAt.Sub(s.now())
		if ttl <= 0 {
			// 已过期的描述符不再写回
			return s.store.Delete(ctx, d.UUID)
		}
	}

	return cache.Set(ctx, s.store, d.UUID, d, ttl)
}

// saveAsync 后台持久化，丢失只会导致计数略旧或下次缓存未命中.
func (s *PasteService) saveAsync(ctx context.Context, task string, d *model.PasteDescriptor) {
	snapshot := d.Clone()

	s.async.Go(ctx, task, func(ctx context.Context) error {
		return s.save(ctx, snapshot)
	})
}

// remove 删除描述符.
func (s *PasteService) remove(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// newID 生成未被占用的标识符.
func (s *PasteService) newID(ctx context.Context, op string) (string, error) {
	for range idAttempts {
		id, err := s.ids.Generate()
		if err != nil {
			return "", newError(KindUnknown, op, "identifier generation failed", err)
		}

		taken, err := s.store.Exists(ctx, id)
		if err != nil {
			return "", upstream(op, err)
		}

		if !taken {
			return id, nil
		}
	}

	return "", newError(KindUnknown, op, "identifier space exhausted", nil)
}

// reap 读取时发现描述符已失效，删除索引记录.
func (s *PasteService) reap(ctx context.Context, d *model.PasteDescriptor, reason string) {
	if err := s.remove(ctx, d.UUID); err != nil {
		s.logger.Warn().Err(err).Str("id", d.UUID).Msg("reap descriptor failed")
		return
	}

	s.logger.Debug().Str("id", d.UUID).Str("reason", reason).Msg("descriptor reaped")
	s.events.reaped(ctx, d, reason)
}

// IDs 列出索引中的全部标识符.
func (s *PasteService) IDs(ctx context.Context) ([]string, error) {
	ids, err := s.store.Names(ctx)
	if err != nil {
		return nil, upstream("list", err)
	}

	return ids, nil
}
