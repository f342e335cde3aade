// Package kv 提供描述符索引使用的键值存储接口和多种实现.
//
// 所有实现都遵守 TTL：redis 使用原生过期，其它实现通过 ttl.go 的包装格式在读取时惰性删除.
// 键不存在统一返回 ErrKeyNotFound，可用 errors.Is 判断.
package kv

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"
	"time"

	"github.com/yeisme/pastevault/pkg/configs"
)

// ErrKeyNotFound 键不存在或已过期.
var ErrKeyNotFound = errors.New("kv: key not found")

// KVStore 描述符索引依赖的最小键值接口.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set ttl<=0 表示不过期.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete 键不存在不视为错误.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 按 glob 模式列出键，空模式表示全部.
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

// KVType 后端名称，与 kv.type 配置一致.
type KVType string

const (
	KVTypeMemory     KVType = "memory"
	KVTypeRedis      KVType = "redis"
	KVTypeNATS       KVType = "nats"
	KVTypeGroupcache KVType = "groupcache"
	KVTypeSQL        KVType = "sql"
)

// KVFactory config 是对应后端的配置指针，memory 后端忽略它.
type KVFactory func(ctx context.Context, config any) (KVStore, error)

var factories = map[KVType]KVFactory{}

// RegisterKVFactory 在各后端文件的 init 中调用，构建标签可以裁掉某些后端.
func RegisterKVFactory(t KVType, f KVFactory) {
	factories[t] = f
}

// GetRegisteredKVTypes 已编译进来的后端，按名称排序.
func GetRegisteredKVTypes() []KVType {
	return slices.Sorted(maps.Keys(factories))
}

// NewKVStore 按名称创建后端.
func NewKVStore(ctx context.Context, t KVType, config any) (KVStore, error) {
	f, ok := factories[t]
	if !ok {
		return nil, fmt.Errorf("kv: backend %q not compiled in (have %v)", t, GetRegisteredKVTypes())
	}

	return f(ctx, config)
}

// Client 带上后端类型的 KVStore，健康检查与日志使用.
type Client struct {
	KVStore

	Type KVType
}

// NewKVClient 从应用配置中取出 kv.type 对应的子配置.
func NewKVClient(ctx context.Context, cfg *configs.AppConfig) (*Client, error) {
	t := KVType(cfg.KV.Type)

	var sub any

	switch t {
	case KVTypeRedis:
		sub = &cfg.KV.Redis
	case KVTypeNATS:
		sub = &cfg.KV.NATS
	case KVTypeGroupcache:
		sub = &cfg.KV.Groupcache
	case KVTypeSQL:
		sub = &SQLOptions{KV: cfg.KV.SQL, DB: cfg.DB, Metrics: cfg.Metrics.Enabled}
	}

	store, err := NewKVStore(ctx, t, sub)
	if err != nil {
		return nil, err
	}

	return &Client{KVStore: store, Type: t}, nil
}

// HealthCheck 一次 Exists 往返.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.Exists(ctx, "health.probe")
	return err
}

func matchKey(pattern, key string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	ok, err := path.Match(pattern, key)

	return err == nil && ok
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
}
