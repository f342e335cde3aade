// Package storage 聚合描述符索引、对象存储位置与消息队列客户端.
//
//	mgr, err := storage.Init(ctx, configs.GetConfig())
//	if err != nil {
//	    // 处理错误
//	}
//	defer mgr.Close()
//
//	bucket, err := mgr.GetS3Resolver().Resolve("large")
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/pastevault/pkg/configs"
	kvc "github.com/yeisme/pastevault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/pastevault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/pastevault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/pastevault/pkg/log"
)

// Manager 聚合所有存储资源. MQ 只在启用事件时存在.
type Manager struct {
	S3 *s3c.Resolver
	KV *kvc.Client
	MQ *mqc.Client
}

// Init 按配置初始化全部存储资源，任一失败时关闭已创建的部分.
func Init(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	m := &Manager{}

	resolver, err := s3c.NewResolver(cfg.Storage, cfg.CircuitBreaker)
	if err != nil {
		return nil, fmt.Errorf("init s3 locations: %w", err)
	}

	if err := resolver.EnsureBuckets(ctx); err != nil {
		return nil, err
	}

	m.S3 = resolver

	if m.KV, err = kvc.NewKVClient(ctx, cfg); err != nil {
		return nil, fmt.Errorf("init kv (%s): %w", cfg.KV.Type, err)
	}

	if cfg.Events.Enabled {
		if m.MQ, err = mqc.New(ctx, &cfg.MQ, cfg.Metrics.Enabled); err != nil {
			_ = m.Close()
			return nil, err
		}
	}

	nlog.Logger().Info().
		Strs("locations", resolver.Names()).
		Str("kv", cfg.KV.Type).
		Bool("events", cfg.Events.Enabled).
		Msg("storage manager initialized")

	return m, nil
}

// GetS3Resolver 获取存储位置解析器.
func (m *Manager) GetS3Resolver() *s3c.Resolver {
	return m.S3
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端，未启用事件时为 nil.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close 关闭全部资源.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.S3 != nil {
		errs = append(errs, m.S3.Close())
	}

	return errors.Join(errs...)
}
